package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/editor"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/store"
)

// Canvas defaults before the first WindowSizeMsg arrives.
const (
	defaultCanvasCols = 64
	defaultCanvasRows = 20
)

// =============================================================================
// editorModel - Interactive occlusion editing
// =============================================================================

// editorModel is the bubbletea model driving an editing session. The
// terminal canvas is a cell grid laid over the image; the cursor plays the
// role of the pointer, and space presses and releases it.
type editorModel struct {
	sess   *editor.Session
	st     store.Store
	syncer *card.Syncer

	imagePath string
	cols      int
	rows      int
	cursorX   int
	cursorY   int

	pointerHeld bool
	groupInput  bool
	groupBuf    string

	status   string
	saved    bool
	lastSync *card.SyncResult
}

// newEditorModel creates the editor model over an open session.
func newEditorModel(sess *editor.Session, st store.Store, syncer *card.Syncer, imagePath string) editorModel {
	return editorModel{
		sess:      sess,
		st:        st,
		syncer:    syncer,
		imagePath: imagePath,
		cols:      defaultCanvasCols,
		rows:      defaultCanvasRows,
		cursorX:   defaultCanvasCols / 2,
		cursorY:   defaultCanvasRows / 2,
	}
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = msg.Width - 4
		m.rows = msg.Height - 7
		if m.cols < 20 {
			m.cols = 20
		}
		if m.rows < 8 {
			m.rows = 8
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if m.groupInput {
			return m.updateGroupInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m editorModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.sess.Close(ctx, m.saved)
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)

	case "shift+up":
		m.sess.Nudge(0, -1, false)
	case "shift+down":
		m.sess.Nudge(0, 1, false)
	case "shift+left":
		m.sess.Nudge(-1, 0, false)
	case "shift+right":
		m.sess.Nudge(1, 0, false)
	case "ctrl+up":
		m.sess.Nudge(0, -1, true)
	case "ctrl+down":
		m.sess.Nudge(0, 1, true)
	case "ctrl+left":
		m.sess.Nudge(-1, 0, true)
	case "ctrl+right":
		m.sess.Nudge(1, 0, true)

	case " ":
		cx, cy := m.cellClient(m.cursorX, m.cursorY)
		if m.pointerHeld {
			m.sess.PointerUp(ctx)
			m.pointerHeld = false
		} else {
			m.sess.PointerDown(cx, cy, m.rectAt(m.cursorX, m.cursorY))
			m.pointerHeld = true
		}

	case "p":
		if m.sess.Tool() == editor.ToolPan {
			m.sess.SetTool(editor.ToolSelect)
		} else {
			m.sess.SetTool(editor.ToolPan)
		}

	case "tab":
		m.cycleSelection()

	case "d", "backspace":
		m.sess.Delete(ctx)

	case "g":
		if m.sess.SelectedID() != "" {
			m.groupInput = true
			m.groupBuf = m.sess.GroupKey()
		} else {
			m.status = "select a rectangle first"
		}

	case "m":
		m.cycleMaskMode()

	case "u":
		m.sess.Reset()
		m.pointerHeld = false
		m.status = "restored snapshot"

	case "+", "=":
		cx, cy := m.cellClient(m.cursorX, m.cursorY)
		m.sess.Zoom(1.25, cx, cy)
	case "-":
		cx, cy := m.cellClient(m.cursorX, m.cursorY)
		m.sess.Zoom(0.8, cx, cy)

	case "s", "ctrl+s":
		m.save(ctx)
	}

	return m, nil
}

func (m editorModel) updateGroupInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.sess.SetGroupKey(m.groupBuf); err != nil {
			m.status = errors.UserMessage(err)
		} else {
			m.status = fmt.Sprintf("group key set to %q", m.groupBuf)
		}
		m.groupInput = false
	case "esc":
		m.groupInput = false
	case "backspace":
		if len(m.groupBuf) > 0 {
			m.groupBuf = m.groupBuf[:len(m.groupBuf)-1]
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.groupBuf += string(msg.Runes)
		}
	}
	return m, nil
}

// save runs the save flow synchronously; a failed save leaves the session
// open with every edit intact, so the user can fix the cause and retry.
func (m *editorModel) save(ctx context.Context) {
	res, err := m.sess.Save(ctx, m.st, m.syncer)
	if err != nil {
		m.status = "save failed: " + errors.UserMessage(err)
		return
	}
	m.saved = true
	m.lastSync = &res
	m.status = fmt.Sprintf("saved: %d active, %d created, %d retired",
		len(res.Active), len(res.Created), len(res.Retired))
}

// moveCursor moves the cell cursor and, while the pointer is held, forwards
// the motion to the session as a pointer move.
func (m *editorModel) moveCursor(dx, dy int) {
	m.cursorX += dx
	m.cursorY += dy
	m.clampCursor()
	if m.pointerHeld {
		cx, cy := m.cellClient(m.cursorX, m.cursorY)
		m.sess.PointerMove(cx, cy)
	}
}

func (m *editorModel) clampCursor() {
	if m.cursorX < 0 {
		m.cursorX = 0
	}
	if m.cursorX >= m.cols {
		m.cursorX = m.cols - 1
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	}
	if m.cursorY >= m.rows {
		m.cursorY = m.rows - 1
	}
}

// cellClient maps a canvas cell to client coordinates: the canvas spans the
// stage at scale 1, so one cell covers stageW/cols by stageH/rows client
// pixels.
func (m editorModel) cellClient(x, y int) (float64, float64) {
	stageW, stageH := m.sess.StageSize()
	return (float64(x) + 0.5) / float64(m.cols) * stageW,
		(float64(y) + 0.5) / float64(m.rows) * stageH
}

// rectAt returns the id of the topmost rectangle under a canvas cell, or ""
// for empty canvas.
func (m editorModel) rectAt(x, y int) string {
	cx, cy := m.cellClient(x, y)
	p := m.sess.ClientToStage(cx, cy)
	stageW, stageH := m.sess.StageSize()

	hit := ""
	for _, r := range m.sess.Rects() {
		px := r.ToPixels(stageW, stageH)
		if p.X >= px.X && p.X <= px.X+px.W && p.Y >= px.Y && p.Y <= px.Y+px.H {
			hit = r.ID
		}
	}
	return hit
}

func (m *editorModel) cycleSelection() {
	rects := m.sess.Rects()
	if len(rects) == 0 {
		return
	}
	cur := m.sess.SelectedID()
	next := 0
	for i, r := range rects {
		if r.ID == cur {
			next = (i + 1) % len(rects)
			break
		}
	}
	m.sess.Select(rects[next].ID)
}

func (m *editorModel) cycleMaskMode() {
	var next card.MaskMode
	switch m.sess.MaskMode() {
	case card.ModeNone:
		next = card.ModeSolo
	case card.ModeSolo:
		next = card.ModeAll
	default:
		next = card.ModeNone
	}
	if err := m.sess.SetMaskMode(next); err != nil {
		m.status = errors.UserMessage(err)
	}
}

func (m editorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Occlusion Editor"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.imagePath))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("space draw/grab  arrows move  shift+arrows nudge  g group  m mode  d delete  u reset  s save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(m.renderCanvas())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	if m.groupInput {
		b.WriteString("\n")
		b.WriteString(StyleValue.Render("group key: " + m.groupBuf + "▏"))
	}

	return b.String()
}

// renderCanvas draws the cell grid: each cell samples the stage point under
// its center through the current pan/zoom transform.
func (m editorModel) renderCanvas() string {
	stageW, stageH := m.sess.StageSize()
	rects := m.sess.Rects()
	selected := m.sess.SelectedID()

	var b strings.Builder
	for y := 0; y < m.rows; y++ {
		for x := 0; x < m.cols; x++ {
			if x == m.cursorX && y == m.cursorY {
				b.WriteString(styleCursor.Render("+"))
				continue
			}

			cx, cy := m.cellClient(x, y)
			p := m.sess.ClientToStage(cx, cy)
			if p.X < 0 || p.X > stageW || p.Y < 0 || p.Y > stageH {
				b.WriteString(" ")
				continue
			}

			cell := styleCanvasEmpty.Render("·")
			for _, r := range rects {
				px := r.ToPixels(stageW, stageH)
				if p.X < px.X || p.X > px.X+px.W || p.Y < px.Y || p.Y > px.Y+px.H {
					continue
				}
				if r.ID == selected {
					cell = styleMaskSelected.Render("█")
				} else {
					cell = styleMaskTarget.Render("▒")
				}
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m editorModel) renderStatus() string {
	tool := "select"
	if m.sess.Tool() == editor.ToolPan {
		tool = "pan"
	}
	mode := string(m.sess.MaskMode())
	if mode == "" {
		mode = "none"
	}

	parts := []string{
		m.sess.Phase().String(),
		tool,
		fmt.Sprintf("zoom %.0f%%", m.sess.Transform().Scale*100),
		fmt.Sprintf("rects %d", len(m.sess.Rects())),
		"mode " + mode,
	}
	if id := m.sess.SelectedID(); id != "" {
		parts = append(parts, fmt.Sprintf("sel %s (group %s)", shortID(id), m.sess.GroupKey()))
	}

	line := StyleDim.Render(strings.Join(parts, " · "))
	if m.status != "" {
		line += "\n" + StyleWarning.Render(m.status)
	}
	return line
}

// shortID abbreviates rect UUIDs for the status bar.
func shortID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}
