package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/mask"
	"github.com/occlusionlab/occlude/pkg/review"
	"github.com/occlusionlab/occlude/pkg/store"
)

// newReviewCmd creates the review command.
func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <card-id>",
		Short: "Study one card with its masks applied",
		Long: `Study one card with its masks applied.

The card can be a derived child (masking its own group) or the parent
itself (masking every rectangle). Press space to reveal; revealing removes
all masks at once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd.Context(), args[0])
		},
	}
}

func runReview(ctx context.Context, cardID string) error {
	cfg, err := loadConfig(configPathFromContext(ctx))
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ref, parent, def, front, err := lookupReviewCard(ctx, st, cardID)
	if err != nil {
		return err
	}

	model := newReviewModel(parent, front, def, ref)
	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	return err
}

// lookupReviewCard resolves a card id to the review inputs: the target ref,
// the owning parent id, its definition, and the front text to show.
func lookupReviewCard(ctx context.Context, st store.Store, cardID string) (review.CardRef, string, card.ParentDefinition, string, error) {
	var ref review.CardRef

	parentID, _, isChild := mask.ParseChildID(cardID)
	if !isChild {
		parentID = cardID
	}

	def, ok, err := st.ParentDefinition(ctx, parentID)
	if err != nil {
		return ref, "", def, "", err
	}
	if !ok {
		return ref, "", def, "", errors.New(errors.ErrCodeCardNotFound, "no occlusions stored for %s", parentID)
	}

	front := ""
	if parent, ok, err := st.Parent(ctx, parentID); err != nil {
		return ref, "", def, "", err
	} else if ok {
		front = parent.Front
	}

	if isChild {
		children, err := st.Children(ctx, parentID)
		if err != nil {
			return ref, "", def, "", err
		}
		for _, c := range children {
			if c.ID != cardID {
				continue
			}
			if c.Retired {
				return ref, "", def, "", errors.New(errors.ErrCodeCardNotFound, "%s is retired", cardID)
			}
			if c.MaskMode != card.ModeNone {
				def.MaskMode = c.MaskMode
			}
			return review.ChildRef(c), parentID, def, front, nil
		}
		return ref, "", def, "", errors.New(errors.ErrCodeCardNotFound, "child %s not found", cardID)
	}

	// Reviewing the parent directly targets every rectangle.
	return review.CardRef{}, parentID, def, front, nil
}

// =============================================================================
// reviewModel - Masked study view
// =============================================================================

type reviewModel struct {
	parentID string
	front    string
	def      card.ParentDefinition
	targets  map[string]bool
	revealed bool

	cols int
	rows int
}

func newReviewModel(parentID, front string, def card.ParentDefinition, ref review.CardRef) reviewModel {
	def = def.Clamped()
	return reviewModel{
		parentID: parentID,
		front:    front,
		def:      def,
		targets:  review.ResolveTargets(ref, def.Rects),
		cols:     defaultCanvasCols,
		rows:     defaultCanvasRows,
	}
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = msg.Width - 4
		m.rows = msg.Height - 6
		if m.cols < 20 {
			m.cols = 20
		}
		if m.rows < 8 {
			m.rows = 8
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "r", "enter":
			m.revealed = !m.revealed
		}
	}
	return m, nil
}

func (m reviewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Review"))
	b.WriteString("  ")
	b.WriteString(StyleValue.Render(m.front))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("space reveal/hide  q quit"))
	b.WriteString("\n\n")

	masks := review.Layout(m.def.Rects, m.targets, m.def.MaskMode, m.revealed)
	b.WriteString(m.renderCanvas(masks))
	b.WriteString("\n")

	mode := string(m.def.MaskMode)
	if mode == "" {
		mode = "solo"
	}
	state := "hidden"
	if m.revealed {
		state = "revealed"
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("%s · mode %s · %s", m.parentID, mode, state)))

	return b.String()
}

// renderCanvas draws the mask layout on the cell grid. Target masks are
// bright, neutral masks dim; the hint marker occupies the mask's top-left
// cell.
func (m reviewModel) renderCanvas(masks []review.Mask) string {
	var b strings.Builder
	for y := 0; y < m.rows; y++ {
		for x := 0; x < m.cols; x++ {
			// Cell center in percent of the image.
			px := (float64(x) + 0.5) / float64(m.cols) * 100
			py := (float64(y) + 0.5) / float64(m.rows) * 100

			cell := styleCanvasEmpty.Render("·")
			for _, mk := range masks {
				if px < mk.Left || px > mk.Left+mk.Width || py < mk.Top || py > mk.Top+mk.Height {
					continue
				}
				switch {
				case mk.Hint && nearTopLeft(mk, px, py, 100/float64(m.cols), 100/float64(m.rows)):
					cell = styleCursor.Render("?")
				case mk.Target:
					cell = styleMaskTarget.Render("█")
				default:
					cell = styleMaskNeutral.Render("▒")
				}
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// nearTopLeft reports whether the sampled point falls in the mask's
// top-left cell, where the hint marker is drawn.
func nearTopLeft(mk review.Mask, px, py, cellW, cellH float64) bool {
	return px < mk.Left+cellW && py < mk.Top+cellH
}
