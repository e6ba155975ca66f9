// Package review computes the mask overlay for a card under study. It is
// pure geometry and selection logic: given the persisted rectangles, the
// record being reviewed and a reveal flag, it decides which rectangles are
// covered, with what color, and where each cover sits as a percentage of
// the image. Rasterizing or styling the result is the host's job (see
// pkg/paint and the review TUI).
package review

import (
	"time"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/geom"
	"github.com/occlusionlab/occlude/pkg/mask"
)

// Default mask colors. Targets get the warm occlusion yellow, non-targets
// in "all" mode a neutral grey.
const (
	DefaultTargetColor  = "#ffeba2"
	DefaultNeutralColor = "#cfcfcf"
)

// SettleDelay is how long a host should wait after an image load or a
// viewport resize before trusting the rendered box it measures. Layout
// engines report intermediate sizes during that window.
const SettleDelay = 150 * time.Millisecond

// CardRef identifies what is being reviewed. A child record carries its
// rect ids and group key; reviewing the parent directly leaves both empty.
type CardRef struct {
	RectIDs  []string
	GroupKey string
}

// ChildRef builds a CardRef from a synchronized child record.
func ChildRef(c card.ChildRecord) CardRef {
	return CardRef{RectIDs: c.RectIDs, GroupKey: c.GroupKey}
}

// Mask is one cover to draw over the image. Geometry is in percent of the
// image's rendered size, so it survives any later resize unchanged.
type Mask struct {
	RectID string
	Shape  card.Shape
	Left   float64
	Top    float64
	Width  float64
	Height float64
	Target bool
	Hint   bool
	Color  string
	Label  string
}

// Placement is a mask resolved against a concrete rendered box, in pixels.
type Placement struct {
	Mask
	Rect geom.Rect
}

// ResolveTargets returns the set of rectangle ids the reviewed card asks
// about. Explicit rect ids win over the group key; a ref with neither
// targets every rectangle.
func ResolveTargets(ref CardRef, rects []card.Rectangle) map[string]bool {
	targets := make(map[string]bool, len(rects))
	switch {
	case len(ref.RectIDs) > 0:
		ids := make(map[string]bool, len(ref.RectIDs))
		for _, id := range ref.RectIDs {
			ids[id] = true
		}
		for _, r := range rects {
			if ids[r.ID] {
				targets[r.ID] = true
			}
		}
	case ref.GroupKey != "":
		key := mask.NormaliseGroupKey(ref.GroupKey)
		for _, r := range rects {
			if mask.NormaliseGroupKey(r.Group()) == key {
				targets[r.ID] = true
			}
		}
	default:
		for _, r := range rects {
			targets[r.ID] = true
		}
	}
	return targets
}

// Layout computes the masks to draw. Revealed is a strict two-state
// toggle: once revealed, nothing is masked. In "solo" mode only target
// rectangles are covered; in "all" mode every rectangle is covered and
// target masks carry the hint marker so the learner can tell which cover
// holds the answer.
func Layout(rects []card.Rectangle, targets map[string]bool, mode card.MaskMode, revealed bool) []Mask {
	if revealed {
		return nil
	}

	all := mode == card.ModeAll
	masks := make([]Mask, 0, len(rects))
	for _, r := range rects {
		target := targets[r.ID]
		if !target && !all {
			continue
		}
		r = r.Clamped()
		m := Mask{
			RectID: r.ID,
			Shape:  r.Shape,
			Left:   r.X * 100,
			Top:    r.Y * 100,
			Width:  r.W * 100,
			Height: r.H * 100,
			Target: target,
			Color:  DefaultTargetColor,
			Label:  r.Group(),
		}
		if all {
			m.Hint = target
			if !target {
				m.Color = DefaultNeutralColor
			}
		}
		masks = append(masks, m)
	}
	return masks
}

// Resync places masks against a freshly measured rendered box. Hosts call
// this after image load, after SettleDelay, and on every resize; the
// percent geometry in the masks themselves never changes.
func Resync(box geom.Box, masks []Mask) []Placement {
	placed := make([]Placement, len(masks))
	for i, m := range masks {
		placed[i] = Placement{
			Mask: m,
			Rect: geom.Rect{
				X: box.X + m.Left/100*box.W,
				Y: box.Y + m.Top/100*box.H,
				W: m.Width / 100 * box.W,
				H: m.Height / 100 * box.H,
			},
		}
	}
	return placed
}
