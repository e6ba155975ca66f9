// Package cli implements the occlude command-line interface.
//
// This package provides commands for editing image occlusions, reviewing the
// derived cards, exporting masked renders, and inspecting how child cards
// derive from their parents. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - edit: Open the interactive occlusion editor for a parent card
//   - review: Study one card with its masks applied
//   - render: Export masked images for every child of the given parents
//   - inspect: Show the parent → group → child derivation graph
//   - sync: Re-run the child synchronizer from stored definitions
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/occlusionlab/occlude/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/occlusionlab/occlude/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "occlude"

// Execute runs the occlude CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands, configures
// logging based on the --verbose flag, and executes the command tree. The
// logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          appName,
		Short:        "Occlude turns annotated images into reviewable flashcards",
		Long:         `Occlude is a CLI tool for image occlusion flashcards: draw rectangles over regions of an image, group them, and study the derived cards with the hidden regions masked.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(withConfigPath(ctx, configPath))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/occlude/config.toml)")

	root.AddCommand(newEditCmd())
	root.AddCommand(newReviewCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newVersionCmd())

	return root.ExecuteContext(ctx)
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}
}
