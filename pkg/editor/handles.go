package editor

// Edge identifies which edges of a rectangle a resize gesture grabs.
// Corners combine two edges, e.g. EdgeLeft|EdgeTop.
type Edge uint8

const (
	EdgeLeft Edge = 1 << iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// EdgeDeltas is a resize step in stage units, one delta per edge. Edges not
// involved in the gesture stay zero.
type EdgeDeltas struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Deltas distributes a pointer movement onto the grabbed edges.
func (e Edge) Deltas(dx, dy float64) EdgeDeltas {
	var d EdgeDeltas
	if e&EdgeLeft != 0 {
		d.Left = dx
	}
	if e&EdgeRight != 0 {
		d.Right = dx
	}
	if e&EdgeTop != 0 {
		d.Top = dy
	}
	if e&EdgeBottom != 0 {
		d.Bottom = dy
	}
	return d
}

// Handle is the per-rectangle gesture binding: the capability surface a
// gesture implementation drives to move or resize one rectangle. Handles
// live in the session's ownership table and are torn down exhaustively on
// re-render, reset, and close, so a stale binding can never mutate a
// detached rectangle set. All deltas are stage units.
type Handle struct {
	s      *Session
	rectID string
	closed bool
}

// Handle returns the interaction binding for a rectangle, creating it on
// first use. Returns nil for unknown rectangle ids.
func (s *Session) Handle(rectID string) *Handle {
	if s.closed || s.indexOf(rectID) < 0 {
		return nil
	}
	if h, ok := s.handles[rectID]; ok {
		return h
	}
	h := &Handle{s: s, rectID: rectID}
	s.handles[rectID] = h
	return h
}

// HandleCount returns the number of live bindings. Mostly useful to verify
// teardown.
func (s *Session) HandleCount() int { return len(s.handles) }

// closeHandles tears down every binding in the ownership table.
func (s *Session) closeHandles() {
	for _, h := range s.handles {
		h.closed = true
	}
	s.handles = map[string]*Handle{}
}

// OnDragStart selects the rectangle and enters the dragging phase.
func (h *Handle) OnDragStart() {
	if h.dead() || h.s.phase != PhaseIdle {
		return
	}
	h.s.Select(h.rectID)
	h.s.phase = PhaseDragging
}

// OnDragMove moves the rectangle by a stage-space delta.
func (h *Handle) OnDragMove(dx, dy float64) {
	if h.dead() || h.s.phase != PhaseDragging || h.s.selectedID != h.rectID {
		return
	}
	h.s.dragBy(dx, dy)
}

// OnDragEnd returns the session to idle; the rectangle stays selected.
func (h *Handle) OnDragEnd() {
	if h.dead() || h.s.phase != PhaseDragging {
		return
	}
	h.s.phase = PhaseIdle
}

// OnResizeStart selects the rectangle and enters the resizing phase with
// the given grabbed edges.
func (h *Handle) OnResizeStart(e Edge) {
	if h.dead() || h.s.phase != PhaseIdle || e == 0 {
		return
	}
	h.s.Select(h.rectID)
	h.s.resizeEdge = e
	h.s.phase = PhaseResizing
}

// OnResizeMove applies edge deltas to the rectangle.
func (h *Handle) OnResizeMove(d EdgeDeltas) {
	if h.dead() || h.s.phase != PhaseResizing || h.s.selectedID != h.rectID {
		return
	}
	h.s.resizeBy(d)
}

// OnResizeEnd returns the session to idle; the rectangle stays selected.
func (h *Handle) OnResizeEnd() {
	if h.dead() || h.s.phase != PhaseResizing {
		return
	}
	h.s.phase = PhaseIdle
	h.s.resizeEdge = 0
}

// Close detaches the binding. A closed handle ignores every call.
func (h *Handle) Close() {
	if h.closed {
		return
	}
	h.closed = true
	delete(h.s.handles, h.rectID)
}

func (h *Handle) dead() bool {
	return h.closed || h.s.closed || h.s.indexOf(h.rectID) < 0
}
