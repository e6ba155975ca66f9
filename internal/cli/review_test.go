package cli

import (
	"context"
	"testing"
	"time"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/mask"
	"github.com/occlusionlab/occlude/pkg/review"
	"github.com/occlusionlab/occlude/pkg/store"
)

func seedDeck(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemory()

	parent := card.Card{ID: "parent-1", Front: "Label the valves"}
	if err := st.PutParent(ctx, parent); err != nil {
		t.Fatal(err)
	}

	def := card.ParentDefinition{
		ImageRef: "heart.png",
		MaskMode: card.ModeAll,
		Rects: []card.Rectangle{
			{ID: "ra", X: 0.1, Y: 0.1, W: 0.2, H: 0.2, GroupKey: "1"},
			{ID: "rb", X: 0.5, Y: 0.5, W: 0.2, H: 0.2, GroupKey: "2"},
		},
	}
	if err := st.PutParentDefinition(ctx, "parent-1", def); err != nil {
		t.Fatal(err)
	}

	syncer := card.NewSyncer(st, nil)
	if _, err := syncer.Sync(ctx, parent, def, time.Now()); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestLookupReviewCardChild(t *testing.T) {
	st := seedDeck(t)
	childID := mask.StableChildID("parent-1", "2")

	ref, parentID, def, front, err := lookupReviewCard(context.Background(), st, childID)
	if err != nil {
		t.Fatal(err)
	}
	if parentID != "parent-1" || front != "Label the valves" {
		t.Errorf("parent = %q, front = %q", parentID, front)
	}
	if ref.GroupKey != "2" || len(ref.RectIDs) != 1 || ref.RectIDs[0] != "rb" {
		t.Errorf("ref = %+v", ref)
	}

	// The whole second scenario: "all" mode covers both rectangles, with
	// the hint on the reviewed group's mask only.
	targets := review.ResolveTargets(ref, def.Rects)
	masks := review.Layout(def.Rects, targets, def.MaskMode, false)
	if len(masks) != 2 {
		t.Fatalf("masks = %d, want 2", len(masks))
	}
	for _, m := range masks {
		wantHint := m.RectID == "rb"
		if m.Hint != wantHint {
			t.Errorf("mask %s hint = %v, want %v", m.RectID, m.Hint, wantHint)
		}
	}
}

func TestLookupReviewCardParent(t *testing.T) {
	st := seedDeck(t)

	ref, _, def, _, err := lookupReviewCard(context.Background(), st, "parent-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ref.RectIDs) != 0 || ref.GroupKey != "" {
		t.Errorf("parent ref should target everything: %+v", ref)
	}
	targets := review.ResolveTargets(ref, def.Rects)
	if len(targets) != 2 {
		t.Errorf("targets = %v", targets)
	}
}

func TestLookupReviewCardMissing(t *testing.T) {
	st := seedDeck(t)
	ctx := context.Background()

	if _, _, _, _, err := lookupReviewCard(ctx, st, "ghost"); errors.GetCode(err) != errors.ErrCodeCardNotFound {
		t.Errorf("err = %v, want CARD_NOT_FOUND", err)
	}
	if _, _, _, _, err := lookupReviewCard(ctx, st, mask.StableChildID("parent-1", "ghost")); errors.GetCode(err) != errors.ErrCodeCardNotFound {
		t.Errorf("err = %v, want CARD_NOT_FOUND", err)
	}
}

func TestLookupReviewCardRetired(t *testing.T) {
	st := seedDeck(t)
	ctx := context.Background()

	// Drop group 2; its child retires and can no longer be reviewed.
	def, _, _ := st.ParentDefinition(ctx, "parent-1")
	def.Rects = def.Rects[:1]
	if err := st.PutParentDefinition(ctx, "parent-1", def); err != nil {
		t.Fatal(err)
	}
	parent, _, _ := st.Parent(ctx, "parent-1")
	if _, err := card.NewSyncer(st, nil).Sync(ctx, parent, def, time.Now()); err != nil {
		t.Fatal(err)
	}

	_, _, _, _, err := lookupReviewCard(ctx, st, mask.StableChildID("parent-1", "2"))
	if errors.GetCode(err) != errors.ErrCodeCardNotFound {
		t.Errorf("err = %v, want CARD_NOT_FOUND for retired child", err)
	}
}
