// Package cli implements the relata command-line interface.
//
// This package provides commands for inspecting prefab snapshots, rendering
// them as diagrams, serving them over HTTP, copying them between stores, and
// browsing a store interactively. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - stats: Summarize a stored snapshot (archetypes, relations, cycles)
//   - render: Generate DOT or SVG diagrams of a snapshot's structure
//   - serve: Serve a snapshot store over HTTP
//   - cp: Copy snapshots between stores
//   - browse: Interactively browse a store's snapshots
//
// # Stores
//
// Commands that touch a store accept --store with a URI
// (file:/path, redis://host:port/db, mongodb://host:port, memory:) or fall
// back to the configured default store (see [LoadConfig]).
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/relata/relata/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "relata"

// Execute runs the relata CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          appName,
		Short:        "Relata stores and inspects entity-graph snapshots",
		Long:         `Relata manages prefab snapshots of entity graphs: summarize their structure, render them as diagrams, serve them over HTTP, and move them between stores.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			ctx = withConfigPath(ctx, configPath)
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/relata/config.toml)")

	root.AddCommand(newStatsCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCopyCmd())
	root.AddCommand(newBrowseCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}
