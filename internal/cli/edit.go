package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/editor"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/imageref"
	"github.com/occlusionlab/occlude/pkg/paint"
)

// newEditCmd creates the edit command.
func newEditCmd() *cobra.Command {
	var (
		image string
		front string
		back  string
		deck  string
	)

	cmd := &cobra.Command{
		Use:   "edit <parent-id>",
		Short: "Open the interactive occlusion editor for a parent card",
		Long: `Open the interactive occlusion editor for a parent card.

Draw rectangles over the regions to hide, group them with keys, and save.
Saving derives one reviewable child card per group and persists everything;
quitting without saving discards the session with no effect.

A new parent needs an image reference:

  occlude edit anatomy-12 --image "[[heart.png]]" --front "Label the valves"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), args[0], image, front, back, deck)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "image reference for a new parent, e.g. \"[[heart.png]]\"")
	cmd.Flags().StringVar(&front, "front", "", "front text for a new parent")
	cmd.Flags().StringVar(&back, "back", "", "back text for a new parent")
	cmd.Flags().StringVar(&deck, "deck", "", "deck name for a new parent")

	return cmd
}

func runEdit(ctx context.Context, parentID, image, front, back, deck string) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPathFromContext(ctx))
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	parent, ok, err := st.Parent(ctx, parentID)
	if err != nil {
		return err
	}
	if !ok {
		if image == "" {
			return errors.New(errors.ErrCodeParentNotFound,
				"parent %s does not exist (create it with --image)", parentID)
		}
		parent = card.Card{ID: parentID, Front: front, Back: back, Deck: deck}
		if err := st.PutParent(ctx, parent); err != nil {
			return err
		}
	}

	def, _, err := st.ParentDefinition(ctx, parentID)
	if err != nil {
		return err
	}
	if image != "" {
		def.ImageRef = imageref.Strip(image)
	}

	// The editor never opens over an unresolvable image.
	resolver := imageref.DirResolver{Root: cfg.Vault.Root}
	imgPath, err := resolver.Resolve(ctx, def.ImageRef, "")
	if err != nil {
		return err
	}
	img, err := paint.Open(imgPath)
	if err != nil {
		return err
	}
	stageW := float64(img.Bounds().Dx())
	stageH := float64(img.Bounds().Dy())

	opts := append(sessionOptions(cfg), editor.WithLogger(logger))
	sess, err := editor.Open(ctx, parent, def, stageW, stageH, opts...)
	if err != nil {
		return err
	}

	model := newEditorModel(sess, st, card.NewSyncer(st, logger), imgPath)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	m, ok := final.(editorModel)
	if !ok {
		return nil
	}
	if m.saved {
		printSuccess("Saved %s", parentID)
		printKeyValue("Rectangles", fmt.Sprintf("%d", len(sess.Rects())))
		if m.lastSync != nil {
			printKeyValue("Children", fmt.Sprintf("%d active, %d created, %d retired",
				len(m.lastSync.Active), len(m.lastSync.Created), len(m.lastSync.Retired)))
		}
		printDetail("Review with: occlude review <child-id>")
	} else {
		printInfo("Session closed without saving; nothing was changed")
	}
	return nil
}
