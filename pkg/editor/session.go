// Package editor implements the interactive occlusion editing session: a
// state machine over one image that lets a user draw, select, move, resize,
// nudge, and group rectangles, with pan/zoom and snapshot reset.
//
// # State Machine
//
// A session is always in exactly one phase:
//
//	Idle → Drawing → Idle      (pointer down on empty canvas, release)
//	Idle ↔ Panning             (space held or pan tool, not over a rect)
//	Idle → Dragging → Idle     (pointer down on a rectangle)
//	Idle → Resizing → Idle     (pointer down on a resize handle)
//
// Independently of the phase, zero or one rectangle is selected. Dragging
// and Resizing always operate on the selection.
//
// All pointer positions enter the session in client coordinates; the
// session converts them to stage pixels through its transform. Per-rectangle
// gesture bindings are modeled as [Handle] values in an explicit ownership
// table with exhaustive teardown, so whichever gesture implementation the
// host uses, stale handlers can never mutate a detached rectangle set.
//
// # Lifecycle
//
// Open captures an immutable snapshot of the parent definition. Save clamps
// and normalizes the live rectangles, hands them to the synchronizer, and
// persists; on failure the session stays open with every edit intact.
// Closing without saving discards all in-session state with no external
// effect. Reset restores the snapshot; it is the only rollback mechanism.
package editor

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/geom"
	"github.com/occlusionlab/occlude/pkg/mask"
	"github.com/occlusionlab/occlude/pkg/observability"
	"github.com/occlusionlab/occlude/pkg/store"
)

// Phase is the session's current interaction state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDrawing
	PhasePanning
	PhaseDragging
	PhaseResizing
)

// String returns the phase name for logs and status bars.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDrawing:
		return "drawing"
	case PhasePanning:
		return "panning"
	case PhaseDragging:
		return "dragging"
	case PhaseResizing:
		return "resizing"
	}
	return "unknown"
}

// Tool is the active editing tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolPan
)

// Defaults for session tuning, overridable via options.
const (
	// DefaultMinDrawPx is the minimum draw size in screen pixels; a
	// gesture smaller than this in either dimension produces nothing.
	DefaultMinDrawPx = 8.0

	// DefaultNudgeStep and DefaultCoarseNudgeStep are arrow-key movement
	// in screen pixels, without and with the modifier.
	DefaultNudgeStep       = 1.0
	DefaultCoarseNudgeStep = 10.0

	DefaultMinScale = 0.25
	DefaultMaxScale = 8.0
)

// minStageEps floors the stage-space minimum size so extreme zoom-out can
// never drive it to zero.
const minStageEps = 1e-3

// liveRect is a rectangle being edited, held in stage pixels.
type liveRect struct {
	id    string
	px    geom.Rect
	group string
	shape card.Shape
}

// Session is one interactive editing session over a parent card's image.
// It is not safe for concurrent use; the host environment serializes user
// interaction.
type Session struct {
	parent card.Card
	def    card.ParentDefinition // snapshot at open, already clamped

	stageW float64
	stageH float64

	rects    []liveRect
	maskMode card.MaskMode

	phase      Phase
	tool       Tool
	spaceHeld  bool
	selectedID string

	transform geom.Transform
	viewport  geom.Box

	// gesture state
	drawStart  geom.Point
	drawCur    geom.Point
	lastClient geom.Point
	resizeEdge Edge

	handles map[string]*Handle

	saving bool
	closed bool

	minDrawPx  float64
	nudgeStep  float64
	coarseStep float64
	minScale   float64
	maxScale   float64
	now        func() time.Time
	logger     *log.Logger
}

// Option configures a Session at open time.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option { return func(s *Session) { s.logger = l } }

// WithMinDrawPx sets the minimum draw-gesture size in screen pixels.
func WithMinDrawPx(px float64) Option { return func(s *Session) { s.minDrawPx = px } }

// WithNudgeSteps sets the fine and coarse nudge distances in screen pixels.
func WithNudgeSteps(fine, coarse float64) Option {
	return func(s *Session) { s.nudgeStep, s.coarseStep = fine, coarse }
}

// WithZoomBounds sets the allowed scale range.
func WithZoomBounds(min, max float64) Option {
	return func(s *Session) { s.minScale, s.maxScale = min, max }
}

// WithClock overrides the time source used for save timestamps.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// Open starts an editing session over a parent card. The definition's
// rectangles are defensively clamped and converted to stage pixels at the
// image's intrinsic size, and an immutable snapshot is captured for Reset.
//
// The image must already be resolved and measured by the host; a session
// never opens over an unresolvable image (the host surfaces that error and
// nothing is mutated).
func Open(ctx context.Context, parent card.Card, def card.ParentDefinition, stageW, stageH float64, opts ...Option) (*Session, error) {
	if stageW <= 0 || stageH <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidRect, "stage size %gx%g is not positive", stageW, stageH)
	}

	s := &Session{
		parent:     parent,
		def:        def.Clamped(),
		stageW:     stageW,
		stageH:     stageH,
		transform:  geom.Identity(),
		viewport:   geom.Box{W: stageW, H: stageH},
		handles:    map[string]*Handle{},
		minDrawPx:  DefaultMinDrawPx,
		nudgeStep:  DefaultNudgeStep,
		coarseStep: DefaultCoarseNudgeStep,
		minScale:   DefaultMinScale,
		maxScale:   DefaultMaxScale,
		now:        time.Now,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.maskMode = s.def.MaskMode
	s.rects = make([]liveRect, 0, len(s.def.Rects))
	for _, r := range s.def.Rects {
		s.rects = append(s.rects, liveRect{
			id:    r.ID,
			px:    r.ToPixels(stageW, stageH),
			group: r.GroupKey,
			shape: r.Shape,
		})
	}

	observability.Editor().OnSessionOpen(ctx, parent.ID, len(s.rects))
	s.logger.Debug("session opened", "parent", parent.ID, "rects", len(s.rects))
	return s, nil
}

// Phase returns the current interaction phase.
func (s *Session) Phase() Phase { return s.phase }

// Tool returns the active tool.
func (s *Session) Tool() Tool { return s.tool }

// SetTool switches between the select and pan tools.
func (s *Session) SetTool(t Tool) { s.tool = t }

// SetSpaceHeld toggles the transient pan modifier.
func (s *Session) SetSpaceHeld(held bool) { s.spaceHeld = held }

// SelectedID returns the selected rectangle's id, or "" when none.
func (s *Session) SelectedID() string { return s.selectedID }

// Transform returns the current pan/zoom state.
func (s *Session) Transform() geom.Transform { return s.transform }

// SetViewport tells the session where its viewport sits in client
// coordinates. Zoom and pointer math depend on it.
func (s *Session) SetViewport(box geom.Box) { s.viewport = box }

// StageSize returns the intrinsic image size in stage pixels.
func (s *Session) StageSize() (w, h float64) { return s.stageW, s.stageH }

// stageBox is the rendered bounding box of the stage under the current
// transform, in client coordinates.
func (s *Session) stageBox() geom.Box {
	return geom.Box{
		X: s.viewport.X + s.transform.TX,
		Y: s.viewport.Y + s.transform.TY,
		W: s.stageW * s.transform.Scale,
		H: s.stageH * s.transform.Scale,
	}
}

// ClientToStage converts a client pointer position to stage pixels.
func (s *Session) ClientToStage(clientX, clientY float64) geom.Point {
	return geom.ClientToStage(s.stageBox(), s.stageW, s.stageH, clientX, clientY)
}

// minStagePx is the minimum rectangle size in stage units: the screen-pixel
// threshold converted through the current zoom.
func (s *Session) minStagePx() float64 {
	min := s.minDrawPx / s.transform.Scale
	if min < minStageEps {
		min = minStageEps
	}
	return min
}

// panActive reports whether a pointer-down should start panning.
func (s *Session) panActive() bool {
	return s.tool == ToolPan || s.spaceHeld
}

// PointerDown feeds a pointer press at client coordinates. hit is the id of
// the rectangle under the pointer, or "" for empty canvas. Drawing starts
// only on empty canvas with no pan modifier; pressing a rectangle selects
// it and arms a drag.
func (s *Session) PointerDown(clientX, clientY float64, hit string) {
	if s.closed || s.phase != PhaseIdle {
		return
	}
	s.lastClient = geom.Point{X: clientX, Y: clientY}

	switch {
	case s.panActive() && hit == "":
		s.phase = PhasePanning
	case hit != "":
		s.Select(hit)
		s.phase = PhaseDragging
	default:
		s.phase = PhaseDrawing
		s.drawStart = s.ClientToStage(clientX, clientY)
		s.drawCur = s.drawStart
	}
}

// PointerDownResize feeds a pointer press on a resize handle of the given
// rectangle. Panning is blocked for the duration of the resize.
func (s *Session) PointerDownResize(clientX, clientY float64, rectID string, edge Edge) {
	if s.closed || s.phase != PhaseIdle || edge == 0 {
		return
	}
	if s.indexOf(rectID) < 0 {
		return
	}
	s.Select(rectID)
	s.lastClient = geom.Point{X: clientX, Y: clientY}
	s.resizeEdge = edge
	s.phase = PhaseResizing
}

// PointerMove feeds pointer motion at client coordinates.
func (s *Session) PointerMove(clientX, clientY float64) {
	if s.closed {
		return
	}
	client := geom.Point{X: clientX, Y: clientY}
	dx := client.X - s.lastClient.X
	dy := client.Y - s.lastClient.Y

	switch s.phase {
	case PhaseDrawing:
		s.drawCur = s.ClientToStage(clientX, clientY)
	case PhasePanning:
		s.transform.TX += dx
		s.transform.TY += dy
	case PhaseDragging:
		s.dragBy(dx/s.transform.Scale, dy/s.transform.Scale)
	case PhaseResizing:
		s.resizeBy(s.resizeEdge.Deltas(dx/s.transform.Scale, dy/s.transform.Scale))
	}

	s.lastClient = client
}

// PointerUp feeds the pointer release, completing whatever gesture is in
// flight. A completed draw gesture produces a new selected rectangle unless
// it was smaller than the screen-pixel minimum, in which case it is
// silently discarded.
func (s *Session) PointerUp(ctx context.Context) {
	if s.closed {
		return
	}
	phase := s.phase
	s.phase = PhaseIdle
	s.resizeEdge = 0

	if phase != PhaseDrawing {
		return
	}

	r := geom.RectFromPoints(s.drawStart, s.drawCur)
	min := s.minStagePx()
	if r.W < min || r.H < min {
		return // degenerate gesture, no rectangle
	}

	r = geom.ClampRect(r, s.stageW, s.stageH, min)
	id := mask.NewRectID()
	group := mask.NextAutoGroupKey(s.rects)

	s.rects = append(s.rects, liveRect{id: id, px: r, group: group, shape: card.ShapeRect})
	s.selectedID = id

	observability.Editor().OnRectDrawn(ctx, s.parent.ID, id)
	s.logger.Debug("rect drawn", "id", id, "group", group)
}

// Select marks the rectangle as selected. Unknown ids clear the selection.
func (s *Session) Select(rectID string) {
	if s.indexOf(rectID) < 0 {
		s.selectedID = ""
		return
	}
	s.selectedID = rectID
}

// Deselect clears the selection.
func (s *Session) Deselect() { s.selectedID = "" }

// Delete removes the selected rectangle immediately, with no confirmation,
// and clears the selection. Its interaction handle is torn down with it.
func (s *Session) Delete(ctx context.Context) {
	i := s.indexOf(s.selectedID)
	if i < 0 {
		return
	}
	id := s.selectedID
	s.rects = append(s.rects[:i], s.rects[i+1:]...)
	s.selectedID = ""
	if h, ok := s.handles[id]; ok {
		h.Close()
	}
	observability.Editor().OnRectDeleted(ctx, s.parent.ID, id)
}

// Nudge moves the selection by the fine step (coarse: the coarse step) of
// screen pixels, converted to stage units at the current zoom, then
// reclamped to the image bounds.
func (s *Session) Nudge(dx, dy int, coarse bool) {
	step := s.nudgeStep
	if coarse {
		step = s.coarseStep
	}
	stage := step / s.transform.Scale
	s.dragBy(float64(dx)*stage, float64(dy)*stage)
}

// SetGroupKey live-updates the selected rectangle's group label. It has no
// structural effect until Save.
func (s *Session) SetGroupKey(key string) error {
	if err := errors.ValidateGroupKey(key); err != nil {
		return err
	}
	i := s.indexOf(s.selectedID)
	if i < 0 {
		return nil
	}
	s.rects[i].group = key
	return nil
}

// GroupKey returns the selected rectangle's raw group label.
func (s *Session) GroupKey() string {
	if i := s.indexOf(s.selectedID); i >= 0 {
		return s.rects[i].group
	}
	return ""
}

// MaskMode returns the live mask mode.
func (s *Session) MaskMode() card.MaskMode { return s.maskMode }

// SetMaskMode sets the live mask mode.
func (s *Session) SetMaskMode(m card.MaskMode) error {
	if _, ok := card.ParseMaskMode(string(m)); !ok {
		return errors.New(errors.ErrCodeInvalidMaskMode, "unknown mask mode %q", string(m))
	}
	s.maskMode = m
	return nil
}

// Zoom scales the view by factor about the client point (cx, cy), keeping
// the stage point under the cursor fixed. Available regardless of tool.
func (s *Session) Zoom(factor, cx, cy float64) {
	s.transform = geom.ZoomAt(s.viewport, s.transform, factor, cx, cy, s.minScale, s.maxScale)
}

// Reset restores rectangles and mask mode to the snapshot captured at open.
// This is a full overwrite and the only rollback mechanism; the transform
// and selection are cleared along with all interaction handles.
func (s *Session) Reset() {
	s.closeHandles()
	s.selectedID = ""
	s.phase = PhaseIdle
	s.maskMode = s.def.MaskMode
	s.rects = s.rects[:0]
	for _, r := range s.def.Rects {
		s.rects = append(s.rects, liveRect{
			id:    r.ID,
			px:    r.ToPixels(s.stageW, s.stageH),
			group: r.GroupKey,
			shape: r.Shape,
		})
	}
}

// Rects returns the live rectangle set, clamped and normalized as it would
// be persisted. The minimum-size rule is a gesture-time constraint, so the
// persisted clamp only guards against degenerate geometry; it must not
// depend on whatever zoom the session happens to be at when saving.
func (s *Session) Rects() []card.Rectangle {
	out := make([]card.Rectangle, 0, len(s.rects))
	for _, lr := range s.rects {
		px := geom.ClampRect(lr.px, s.stageW, s.stageH, minStageEps)
		r := card.FromPixels(px, s.stageW, s.stageH, lr.id, lr.group)
		r.Shape = lr.shape
		if r.Shape != card.ShapeCircle {
			r.Shape = card.ShapeRect
		}
		out = append(out, r)
	}
	return out
}

// Definition returns the session's current state as a persistable parent
// definition.
func (s *Session) Definition() card.ParentDefinition {
	return card.ParentDefinition{
		ImageRef: s.def.ImageRef,
		MaskMode: s.maskMode,
		Rects:    s.Rects(),
	}
}

// Snapshot returns the immutable definition captured at open.
func (s *Session) Snapshot() card.ParentDefinition { return s.def }

// Save clamps and persists the live rectangle set and synchronizes child
// records. It is the only asynchronous step in a session: re-entry while a
// save is in flight is refused, and on any failure the session stays open
// with all in-memory edits intact for retry.
func (s *Session) Save(ctx context.Context, st store.Store, syncer *card.Syncer) (card.SyncResult, error) {
	var res card.SyncResult

	if s.closed {
		return res, errors.New(errors.ErrCodeSessionClosed, "session for %s is closed", s.parent.ID)
	}
	if s.saving {
		return res, errors.New(errors.ErrCodeSaveInFlight, "save already in progress for %s", s.parent.ID)
	}
	if s.def.ImageRef == "" {
		return res, errors.New(errors.ErrCodeImageNotFound, "parent %s has no image reference", s.parent.ID)
	}

	s.saving = true
	defer func() { s.saving = false }()

	def := s.Definition()
	if err := st.PutParentDefinition(ctx, s.parent.ID, def); err != nil {
		return res, err
	}

	res, err := syncer.Sync(ctx, s.parent, def, s.now())
	if err != nil {
		return res, err
	}

	if err := st.Persist(ctx); err != nil {
		return res, errors.Wrap(errors.ErrCodePersistFailed, err, "persisting parent %s", s.parent.ID)
	}

	s.logger.Info("saved occlusions",
		"parent", s.parent.ID,
		"rects", len(def.Rects),
		"children", len(res.Active))
	return res, nil
}

// Close ends the session and tears down every interaction handle. Closing
// without saving discards all in-session state with zero external effect.
func (s *Session) Close(ctx context.Context, saved bool) {
	if s.closed {
		return
	}
	s.closed = true
	s.closeHandles()
	observability.Editor().OnSessionClose(ctx, s.parent.ID, saved)
}

// Closed reports whether the session has ended.
func (s *Session) Closed() bool { return s.closed }

func (s *Session) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range s.rects {
		if r.id == id {
			return i
		}
	}
	return -1
}

// dragBy moves the selected rectangle by a stage-space delta, keeping it
// inside the image with the minimum-size guard.
func (s *Session) dragBy(dx, dy float64) {
	i := s.indexOf(s.selectedID)
	if i < 0 {
		return
	}
	r := s.rects[i].px
	r.X += dx
	r.Y += dy
	s.rects[i].px = geom.ClampRect(r, s.stageW, s.stageH, s.minStagePx())
}

// resizeBy applies edge deltas to the selected rectangle, then reclamps.
func (s *Session) resizeBy(d EdgeDeltas) {
	i := s.indexOf(s.selectedID)
	if i < 0 {
		return
	}
	r := s.rects[i].px
	r.X += d.Left
	r.W -= d.Left
	r.Y += d.Top
	r.H -= d.Top
	r.W += d.Right
	r.H += d.Bottom

	min := s.minStagePx()
	// A collapsed edge pins the rectangle at minimum size instead of
	// inverting it.
	if r.W < min {
		if d.Left != 0 {
			r.X = s.rects[i].px.X + s.rects[i].px.W - min
		}
		r.W = min
	}
	if r.H < min {
		if d.Top != 0 {
			r.Y = s.rects[i].px.Y + s.rects[i].px.H - min
		}
		r.H = min
	}
	s.rects[i].px = geom.ClampRect(r, s.stageW, s.stageH, min)
}

// Group implements mask.GroupKeyer for auto group-key assignment.
func (r liveRect) Group() string { return r.group }
