// Package card defines the persisted data model for image occlusion cards
// and the synchronizer that derives reviewable child cards from grouped
// rectangles.
//
// # Model
//
// A parent card owns one image and a set of occlusion rectangles, stored as
// a [ParentDefinition]. Rectangles are partitioned by group key; every group
// becomes one [ChildRecord], the unit the scheduler actually reviews. Child
// ids are a deterministic function of (parent id, group key), so saving the
// same definition twice is a no-op for the active-child set.
//
// Children are never deleted. When a group disappears from a saved
// definition its child is flagged retired, preserving review history in
// case the group key is later reused.
package card

import (
	"time"

	"github.com/occlusionlab/occlude/pkg/geom"
	"github.com/occlusionlab/occlude/pkg/mask"
)

// Shape selects how a rectangle's mask is drawn at review time.
type Shape string

const (
	// ShapeRect is the default axis-aligned rectangle mask.
	ShapeRect Shape = "rect"

	// ShapeCircle renders the mask as an ellipse inscribed in the
	// rectangle. The editor never authors circles; the shape survives
	// load/save round trips and affects rendering only.
	ShapeCircle Shape = "circle"
)

// MaskMode controls which rectangles are masked when reviewing a child.
type MaskMode string

const (
	// ModeNone means no mode has been chosen yet.
	ModeNone MaskMode = ""

	// ModeSolo masks only the reviewed child's rectangles; everything
	// else stays visible.
	ModeSolo MaskMode = "solo"

	// ModeAll masks every rectangle, with the reviewed child's masks
	// carrying a distinguishing hint marker.
	ModeAll MaskMode = "all"
)

// ParseMaskMode validates v as a mask mode. The empty string is accepted as
// ModeNone; anything else unrecognised is rejected.
func ParseMaskMode(v string) (MaskMode, bool) {
	if v == "" {
		return ModeNone, true
	}
	if !mask.IsMaskMode(v) {
		return ModeNone, false
	}
	return MaskMode(v), true
}

// Rectangle is one persisted occlusion region. X, Y, W and H are fractions
// of the image width/height in [0,1].
type Rectangle struct {
	ID       string  `json:"rectId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	GroupKey string  `json:"groupKey"`
	Shape    Shape   `json:"shape,omitempty"`
}

// Group implements mask.GroupKeyer.
func (r Rectangle) Group() string { return r.GroupKey }

// Norm returns the rectangle's normalized geometry.
func (r Rectangle) Norm() geom.NormRect {
	return geom.NormRect{X: r.X, Y: r.Y, W: r.W, H: r.H}
}

// ToPixels converts the rectangle to stage pixels at the given stage size.
func (r Rectangle) ToPixels(stageW, stageH float64) geom.Rect {
	return geom.ToPixels(r.Norm(), stageW, stageH)
}

// Clamped returns a copy with coordinates defensively clamped into [0,1],
// the group key normalized, and a missing shape defaulted to ShapeRect.
// Externally modified or legacy data is repaired rather than rejected.
func (r Rectangle) Clamped() Rectangle {
	n := geom.Clamp01(r.Norm())
	r.X, r.Y, r.W, r.H = n.X, n.Y, n.W, n.H
	r.GroupKey = mask.NormaliseGroupKey(r.GroupKey)
	if r.Shape != ShapeCircle {
		r.Shape = ShapeRect
	}
	return r
}

// FromPixels builds a persistable rectangle from stage-pixel geometry,
// attaching the id and normalized group key.
func FromPixels(px geom.Rect, stageW, stageH float64, id, groupKey string) Rectangle {
	n := geom.ToNorm(px, stageW, stageH)
	return Rectangle{
		ID:       id,
		X:        n.X,
		Y:        n.Y,
		W:        n.W,
		H:        n.H,
		GroupKey: mask.NormaliseGroupKey(groupKey),
		Shape:    ShapeRect,
	}
}

// ParentDefinition is the full occlusion state of one parent card.
type ParentDefinition struct {
	ImageRef string      `json:"imageRef"`
	MaskMode MaskMode    `json:"maskMode,omitempty"`
	Rects    []Rectangle `json:"rects"`
}

// Clamped returns a copy with every rectangle repaired via
// [Rectangle.Clamped] and an unrecognised mask mode dropped to ModeNone.
func (d ParentDefinition) Clamped() ParentDefinition {
	rects := make([]Rectangle, len(d.Rects))
	for i, r := range d.Rects {
		rects[i] = r.Clamped()
	}
	d.Rects = rects
	if _, ok := ParseMaskMode(string(d.MaskMode)); !ok {
		d.MaskMode = ModeNone
	}
	return d
}

// GroupKeys returns the distinct normalized group keys of the definition's
// rectangles, in order of first appearance.
func (d ParentDefinition) GroupKeys() []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range d.Rects {
		k := mask.NormaliseGroupKey(r.GroupKey)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// Card is a parent occlusion card: the display fields children denormalise.
type Card struct {
	ID        string    `json:"id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Deck      string    `json:"deck"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChildRecord is one reviewable unit: a single group of rectangles under a
// parent. Children are soft-deleted via Retired, never removed.
type ChildRecord struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // always TypeChild
	ParentID  string    `json:"parentId"`
	GroupKey  string    `json:"groupKey"`
	RectIDs   []string  `json:"rectIds"`
	MaskMode  MaskMode  `json:"maskMode,omitempty"`
	ImageRef  string    `json:"imageRef"`
	Retired   bool      `json:"retired"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Deck      string    `json:"deck"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TypeChild is the type marker carried by derived child records.
const TypeChild = "occlusion-child"

// SchedulingRecord is the spaced-repetition state for one card. The
// scheduler itself is external; the synchronizer only guarantees a record
// exists for every active child.
type SchedulingRecord struct {
	CardID   string    `json:"cardId"`
	Due      time.Time `json:"due"`
	Interval float64   `json:"interval"` // days
	Ease     float64   `json:"ease"`
	Reps     int       `json:"reps"`
}

// NewScheduling returns the initial scheduling state for a card: due
// immediately with the conventional starting ease.
func NewScheduling(cardID string, now time.Time) SchedulingRecord {
	return SchedulingRecord{
		CardID: cardID,
		Due:    now,
		Ease:   2.5,
	}
}
