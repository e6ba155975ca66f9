package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/imageref"
	"github.com/occlusionlab/occlude/pkg/paint"
	"github.com/occlusionlab/occlude/pkg/review"
)

// newRenderCmd creates the render command.
func newRenderCmd() *cobra.Command {
	var (
		output string
		labels bool
	)

	cmd := &cobra.Command{
		Use:   "render [parent-id...]",
		Short: "Export masked images for every child of the given parents",
		Long: `Export masked images for every child of the given parents.

For each active child one PNG is written showing the unrevealed view: its
masks painted over the parent image. With no arguments every stored parent
is rendered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args, output, labels)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&labels, "labels", false, "draw group labels on masks")

	return cmd
}

func runRender(ctx context.Context, parentIDs []string, output string, labels bool) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPathFromContext(ctx))
	if err != nil {
		return err
	}
	if labels {
		cfg.Render.Labels = true
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(parentIDs) == 0 {
		parentIDs, err = st.ParentIDs(ctx)
		if err != nil {
			return err
		}
	}
	if len(parentIDs) == 0 {
		printInfo("Nothing to render")
		return nil
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return err
	}

	resolver := imageref.DirResolver{Root: cfg.Vault.Root}
	painter := paint.Painter{Labels: cfg.Render.Labels}
	prog := newProgress(logger)

	var (
		mu      sync.Mutex
		written []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Render.Workers)

	for _, parentID := range parentIDs {
		def, ok, err := st.ParentDefinition(ctx, parentID)
		if err != nil {
			return err
		}
		if !ok {
			logger.Warn("no occlusions stored, skipping", "parent", parentID)
			continue
		}
		def = def.Clamped()

		children, err := st.Children(ctx, parentID)
		if err != nil {
			return err
		}

		imgPath, err := resolver.Resolve(ctx, def.ImageRef, "")
		if err != nil {
			return err
		}

		for _, child := range children {
			if child.Retired {
				continue
			}
			child := child
			def := def

			g.Go(func() error {
				img, err := paint.Open(imgPath)
				if err != nil {
					return err
				}

				targets := review.ResolveTargets(review.ChildRef(child), def.Rects)
				mode := def.MaskMode
				if child.MaskMode != card.ModeNone {
					mode = child.MaskMode
				}
				masks := review.Layout(def.Rects, targets, mode, false)
				recolor(masks, cfg.Render)

				out, err := painter.Render(gctx, img, masks)
				if err != nil {
					return err
				}

				path := filepath.Join(output, renderFileName(child.ID))
				if err := paint.Save(out, path); err != nil {
					return err
				}

				mu.Lock()
				written = append(written, path)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Rendered %d cards", len(written)))
	for _, path := range written {
		printFile(path)
	}
	return nil
}

// renderFileName makes a child id safe as a file name.
func renderFileName(childID string) string {
	return strings.ReplaceAll(childID, ":", "_") + ".png"
}

// recolor applies configured mask colors over the layout defaults.
func recolor(masks []review.Mask, cfg RenderConfig) {
	for i := range masks {
		switch masks[i].Color {
		case review.DefaultTargetColor:
			if cfg.TargetColor != "" {
				masks[i].Color = cfg.TargetColor
			}
		case review.DefaultNeutralColor:
			if cfg.NeutralColor != "" {
				masks[i].Color = cfg.NeutralColor
			}
		}
	}
}
