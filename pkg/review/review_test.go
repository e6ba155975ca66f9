package review

import (
	"testing"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/geom"
)

func rects() []card.Rectangle {
	return []card.Rectangle{
		{ID: "ra", X: 0.1, Y: 0.1, W: 0.2, H: 0.2, GroupKey: "1"},
		{ID: "rb", X: 0.5, Y: 0.5, W: 0.3, H: 0.1, GroupKey: "2"},
	}
}

func TestResolveTargets(t *testing.T) {
	tests := []struct {
		name string
		ref  CardRef
		want []string
	}{
		{"explicit ids win", CardRef{RectIDs: []string{"rb"}, GroupKey: "1"}, []string{"rb"}},
		{"group key", CardRef{GroupKey: "2"}, []string{"rb"}},
		{"padded group key", CardRef{GroupKey: " 1 "}, []string{"ra", "rd"}},
		{"padded rect group key", CardRef{GroupKey: "3"}, []string{"rc"}},
		{"empty rect group means 1", CardRef{GroupKey: "1"}, []string{"ra", "rd"}},
		{"parent targets everything", CardRef{}, []string{"ra", "rb", "rc", "rd"}},
		{"unknown id targets nothing", CardRef{RectIDs: []string{"zz"}}, nil},
	}

	// Definitions loaded without a clamp pass carry raw group keys.
	all := append(rects(),
		card.Rectangle{ID: "rc", X: 0.1, Y: 0.5, W: 0.1, H: 0.1, GroupKey: " 3 "},
		card.Rectangle{ID: "rd", X: 0.7, Y: 0.1, W: 0.1, H: 0.1, GroupKey: ""},
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTargets(tt.ref, all)
			if len(got) != len(tt.want) {
				t.Fatalf("targets = %v, want %v", got, tt.want)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("targets = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestLayoutSoloMasksOnlyTargets(t *testing.T) {
	targets := ResolveTargets(CardRef{GroupKey: "2"}, rects())
	masks := Layout(rects(), targets, card.ModeSolo, false)

	if len(masks) != 1 {
		t.Fatalf("got %d masks, want 1", len(masks))
	}
	m := masks[0]
	if m.RectID != "rb" || !m.Target || m.Hint {
		t.Errorf("mask = %+v, want plain target for rb", m)
	}
	if m.Left != 50 || m.Top != 50 || m.Width != 30 || m.Height != 10 {
		t.Errorf("geometry = %+v, want percent of image", m)
	}
	if m.Color != DefaultTargetColor {
		t.Errorf("color = %q, want target color", m.Color)
	}
}

// Two groups on one parent, mode "all": reviewing the "2" child covers both
// rectangles, with the hint marker on the "2" mask and the "1" mask plain.
func TestLayoutAllMasksEverything(t *testing.T) {
	targets := ResolveTargets(CardRef{GroupKey: "2"}, rects())
	masks := Layout(rects(), targets, card.ModeAll, false)

	if len(masks) != 2 {
		t.Fatalf("got %d masks, want 2", len(masks))
	}
	byID := map[string]Mask{}
	for _, m := range masks {
		byID[m.RectID] = m
	}

	target := byID["rb"]
	if !target.Target || !target.Hint || target.Color != DefaultTargetColor {
		t.Errorf("target mask = %+v, want hinted target", target)
	}
	other := byID["ra"]
	if other.Target || other.Hint || other.Color != DefaultNeutralColor {
		t.Errorf("non-target mask = %+v, want plain neutral", other)
	}
}

func TestLayoutRevealedDrawsNothing(t *testing.T) {
	targets := ResolveTargets(CardRef{}, rects())
	for _, mode := range []card.MaskMode{card.ModeSolo, card.ModeAll} {
		if masks := Layout(rects(), targets, mode, true); len(masks) != 0 {
			t.Errorf("mode %q: revealed layout has %d masks, want none", mode, len(masks))
		}
	}
}

func TestLayoutPreservesShape(t *testing.T) {
	rs := []card.Rectangle{
		{ID: "c1", X: 0.2, Y: 0.2, W: 0.1, H: 0.1, GroupKey: "1", Shape: card.ShapeCircle},
	}
	masks := Layout(rs, ResolveTargets(CardRef{}, rs), card.ModeSolo, false)
	if len(masks) != 1 || masks[0].Shape != card.ShapeCircle {
		t.Fatalf("masks = %+v, want circle preserved", masks)
	}
}

func TestResync(t *testing.T) {
	masks := []Mask{{RectID: "ra", Left: 10, Top: 20, Width: 50, Height: 25}}

	// The same percent geometry lands differently on different boxes.
	small := Resync(geom.Box{X: 0, Y: 0, W: 400, H: 300}, masks)[0].Rect
	if small.X != 40 || small.Y != 60 || small.W != 200 || small.H != 75 {
		t.Errorf("small box placement = %+v", small)
	}

	big := Resync(geom.Box{X: 10, Y: 5, W: 800, H: 600}, masks)[0].Rect
	if big.X != 90 || big.Y != 125 || big.W != 400 || big.H != 150 {
		t.Errorf("big box placement = %+v", big)
	}
}
