package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relata/relata/pkg/store"
)

// copyOpts holds the command-line flags for the cp command.
type copyOpts struct {
	id string // copy a single snapshot instead of the whole store
}

// newCopyCmd creates the cp command for moving snapshots between stores.
func newCopyCmd() *cobra.Command {
	var opts copyOpts

	cmd := &cobra.Command{
		Use:   "cp <src-store> <dst-store>",
		Short: "Copy snapshots between stores",
		Long: `Cp copies snapshots from one store to another.

Both arguments are store URIs, for example:

  relata cp file:/tmp/snapshots redis://localhost:6379/0
  relata cp redis://localhost:6379/0 mongodb://localhost:27017 --id 3f2a...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd.Context(), args[0], args[1], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "copy only the snapshot with this ID")

	return cmd
}

func runCopy(ctx context.Context, srcURI, dstURI string, opts *copyOpts) error {
	logger := loggerFromContext(ctx)

	src, closeSrc, err := openStoreURI(ctx, srcURI)
	if err != nil {
		return fmt.Errorf("open source store: %w", err)
	}
	defer closeSrc(context.Background())

	dst, closeDst, err := openStoreURI(ctx, dstURI)
	if err != nil {
		return fmt.Errorf("open destination store: %w", err)
	}
	defer closeDst(context.Background())

	ids, err := copyIDs(ctx, src, opts.id)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		printInfo("Nothing to copy")
		return nil
	}

	prog := newProgress(logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Copying %d snapshots...", len(ids)))
	spinner.Start()

	copied := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			spinner.Stop()
			return err
		}
		p, err := src.Get(ctx, id)
		if err != nil {
			spinner.StopWithError(fmt.Sprintf("Failed reading %s", id))
			return err
		}
		if err := dst.Put(ctx, p); err != nil {
			spinner.StopWithError(fmt.Sprintf("Failed writing %s", id))
			return err
		}
		copied++
	}

	spinner.Stop()
	prog.done(fmt.Sprintf("Copied %d snapshots", copied))
	return nil
}

// copyIDs resolves the set of snapshot IDs to copy: either the single
// --id value or every snapshot the source store lists.
func copyIDs(ctx context.Context, src store.Store, only string) ([]string, error) {
	if only != "" {
		return []string{only}, nil
	}
	infos, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source store: %w", err)
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ID.String())
	}
	return ids, nil
}
