package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/occlusionlab/occlude/pkg/card"
)

func testDefinition() card.ParentDefinition {
	return card.ParentDefinition{
		ImageRef: "anatomy/heart.png",
		MaskMode: card.ModeSolo,
		Rects: []card.Rectangle{
			{ID: "r1", X: 0.1, Y: 0.1, W: 0.2, H: 0.2, GroupKey: "1", Shape: card.ShapeRect},
			{ID: "r2", X: 0.5, Y: 0.5, W: 0.3, H: 0.3, GroupKey: "2", Shape: card.ShapeCircle},
		},
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, err := m.ParentDefinition(ctx, "p1"); err != nil || ok {
		t.Fatalf("ParentDefinition on empty store = ok %v, err %v", ok, err)
	}

	def := testDefinition()
	if err := m.PutParentDefinition(ctx, "p1", def); err != nil {
		t.Fatal(err)
	}

	got, ok, err := m.ParentDefinition(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("ParentDefinition = ok %v, err %v", ok, err)
	}
	if len(got.Rects) != 2 || got.ImageRef != def.ImageRef {
		t.Errorf("round trip mismatch: %+v", got)
	}

	child := card.ChildRecord{ID: "p1::io::1", ParentID: "p1", GroupKey: "1", RectIDs: []string{"r1"}}
	if err := m.PutChild(ctx, child); err != nil {
		t.Fatal(err)
	}
	kids, err := m.Children(ctx, "p1")
	if err != nil || len(kids) != 1 {
		t.Fatalf("Children = %v, err %v", kids, err)
	}
	if kids, _ := m.Children(ctx, "other"); len(kids) != 0 {
		t.Errorf("Children of unrelated parent = %v, want none", kids)
	}

	if _, ok, _ := m.Scheduling(ctx, "p1::io::1"); ok {
		t.Error("Scheduling should be absent before first put")
	}
	if err := m.PutScheduling(ctx, card.NewScheduling("p1::io::1", time.Now())); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Scheduling(ctx, "p1::io::1"); !ok {
		t.Error("Scheduling absent after put")
	}

	if err := m.Persist(ctx); err != nil {
		t.Errorf("Persist = %v", err)
	}
}

func TestFilePersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deck", "cards.json")

	f, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.PutParentDefinition(ctx, "p1", testDefinition()); err != nil {
		t.Fatal(err)
	}
	if err := f.PutParent(ctx, card.Card{ID: "p1", Front: "Label the valves", Deck: "anatomy"}); err != nil {
		t.Fatal(err)
	}
	if err := f.PutChild(ctx, card.ChildRecord{ID: "p1::io::1", ParentID: "p1", GroupKey: "1", Retired: true}); err != nil {
		t.Fatal(err)
	}
	if err := f.Persist(ctx); err != nil {
		t.Fatal(err)
	}

	// A fresh store over the same path sees everything.
	g, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	def, ok, err := g.ParentDefinition(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("reloaded definition: ok %v, err %v", ok, err)
	}
	if len(def.Rects) != 2 {
		t.Errorf("reloaded rects = %d, want 2", len(def.Rects))
	}
	if def.Rects[1].Shape != card.ShapeCircle {
		t.Errorf("circle shape lost on reload: %+v", def.Rects[1])
	}
	p, ok, _ := g.Parent(ctx, "p1")
	if !ok || p.Front != "Label the valves" {
		t.Errorf("reloaded parent = %+v", p)
	}
	kids, _ := g.Children(ctx, "p1")
	if len(kids) != 1 || !kids[0].Retired {
		t.Errorf("reloaded children = %+v", kids)
	}

	ids, err := g.ParentIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "p1" {
		t.Errorf("ParentIDs = %v, err %v", ids, err)
	}
}

func TestFileToleratesCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile over corrupt document = %v, want empty deck", err)
	}
	ids, _ := f.ParentIDs(context.Background())
	if len(ids) != 0 {
		t.Errorf("corrupt document produced ids %v", ids)
	}
}

func TestFileClampsMalformedRectsOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	raw := `{"definitions":{"p1":{"imageRef":"img.png","rects":[
		{"rectId":"r1","x":-0.5,"y":1.7,"w":2,"h":0.3,"groupKey":""}
	]}}}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	def, ok, err := f.ParentDefinition(context.Background(), "p1")
	if err != nil || !ok {
		t.Fatalf("definition missing: ok %v, err %v", ok, err)
	}
	r := def.Rects[0]
	if r.X != 0 || r.Y != 1 || r.W != 1 || r.H != 0.3 {
		t.Errorf("rect not clamped on load: %+v", r)
	}
	if r.GroupKey != "1" {
		t.Errorf("empty group key not coerced: %q", r.GroupKey)
	}
	if r.Shape != card.ShapeRect {
		t.Errorf("missing shape not defaulted: %q", r.Shape)
	}
}
