package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relata/relata/pkg/render"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	storeURI string // store to load the snapshot from
	output   string // output file path; empty means stdout (dot) or <id>.svg
	format   string // output format: "svg" or "dot"
	detailed bool   // include slot identity and payload sizes in labels
}

// newRenderCmd creates the render command for drawing a snapshot's
// structure as a node-link diagram.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{format: formatSVG}

	cmd := &cobra.Command{
		Use:   "render <snapshot-id>",
		Short: "Render a snapshot's structure to SVG or DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatSVG && opts.format != formatDOT {
				return fmt.Errorf("unsupported format %q (svg, dot)", opts.format)
			}
			return runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.storeURI, "store", "", "store URI (file:/path, redis://..., mongodb://..., memory:)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <id>.svg, or stdout for dot)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show slot identity and payload sizes")

	return cmd
}

func runRender(cmd *cobra.Command, id string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	s, closeStore, err := openStore(ctx, opts.storeURI)
	if err != nil {
		return err
	}
	defer closeStore(ctx)

	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	logger.Debugf("loaded snapshot %s: %d entities, %d edges", p.ID, p.EntityCount(), p.EdgeCount())

	renderOptions := render.Options{Detailed: opts.detailed}

	if opts.format == formatDOT {
		dot := render.ToDOT(p, renderOptions)
		if opts.output == "" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(opts.output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("write DOT: %w", err)
		}
		printFile(opts.output)
		return nil
	}

	prog := newProgress(logger)
	svg, err := render.Snapshot(ctx, p, renderOptions)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d entities", p.EntityCount()))

	out := opts.output
	if out == "" {
		out = id + ".svg"
	}
	if err := os.WriteFile(out, svg, 0644); err != nil {
		return fmt.Errorf("write SVG: %w", err)
	}
	printFile(out)
	return nil
}
