package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/relata/relata/pkg/prefab"
)

// newStatsCmd creates the stats command for summarizing a stored snapshot.
func newStatsCmd() *cobra.Command {
	var storeURI string

	cmd := &cobra.Command{
		Use:   "stats <snapshot-id>",
		Short: "Summarize a snapshot's entities, relations, and cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := openStore(ctx, storeURI)
			if err != nil {
				return err
			}
			defer closeStore(ctx)

			p, err := s.Get(ctx, args[0])
			if err != nil {
				return err
			}
			printStats(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeURI, "store", "", "store URI (file:/path, redis://..., mongodb://..., memory:)")
	return cmd
}

// printStats writes the snapshot summary to stdout.
func printStats(p *prefab.Prefab) {
	fmt.Println(StyleTitle.Render("Snapshot " + p.ID.String()))
	printNewline()
	printKeyValue("created", p.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	printKeyValue("codec", p.Codec)
	printKeyValue("entities", fmt.Sprintf("%d", p.EntityCount()))
	printKeyValue("edges", fmt.Sprintf("%d", p.EdgeCount()))
	printNewline()

	printInfo("Archetypes")
	for _, arch := range p.Nodes {
		payload := 0
		for _, data := range arch.Payloads {
			payload += len(data)
		}
		printDetail("%-30s %4d entities  %6dB", arch.DataType, len(arch.Slots), payload)
	}

	if len(p.Relations) == 0 {
		return
	}
	printNewline()
	printInfo("Relations")
	for _, arch := range p.Relations {
		cycle := ""
		if hasCycle(arch.Edges) {
			cycle = StyleHighlight.Render("  cyclic")
		}
		printDetail("%-30s %4d edges%s", arch.DataType, len(arch.Edges), cycle)
	}
}

// hasCycle reports whether one category's edge set contains a directed
// cycle, walking the document structure without restoring the graph.
func hasCycle(edges []prefab.Edge) bool {
	type ref struct {
		dt        string
		slot, gen uint32
	}
	key := func(e prefab.EndpointRef) ref {
		return ref{dt: e.DataType.String(), slot: e.ID.Slot, gen: e.ID.Gen}
	}

	next := make(map[ref][]ref)
	for _, e := range edges {
		from := key(e.Source)
		next[from] = append(next[from], key(e.Target))
	}
	starts := make([]ref, 0, len(next))
	for from := range next {
		starts = append(starts, from)
	}
	sort.Slice(starts, func(i, j int) bool {
		a, b := starts[i], starts[j]
		if a.dt != b.dt {
			return a.dt < b.dt
		}
		if a.slot != b.slot {
			return a.slot < b.slot
		}
		return a.gen < b.gen
	})

	// Iterative DFS with an explicit stack; onPath marks the current walk.
	done := make(map[ref]bool)
	for _, start := range starts {
		if done[start] {
			continue
		}
		type frame struct {
			node ref
			next int
		}
		stack := []frame{{node: start}}
		onPath := map[ref]bool{start: true}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			neighbors := next[top.node]
			if top.next >= len(neighbors) {
				onPath[top.node] = false
				done[top.node] = true
				stack = stack[:len(stack)-1]
				continue
			}
			n := neighbors[top.next]
			top.next++
			if onPath[n] {
				return true
			}
			if done[n] {
				continue
			}
			onPath[n] = true
			stack = append(stack, frame{node: n})
		}
	}
	return false
}
