package graph

import (
	"iter"

	"github.com/relata/relata/pkg/arena"
)

// walker is a pull-based breadth-first traversal over outgoing edges. A
// visited set guarantees each handle is produced at most once, so the walk
// terminates on cyclic graphs.
type walker struct {
	neighbors func(arena.Handle) []arena.Handle
	queue     []arena.Handle
	visited   map[arena.Handle]struct{}
}

func newWalker(start arena.Handle, neighbors func(arena.Handle) []arena.Handle) *walker {
	return &walker{
		neighbors: neighbors,
		queue:     []arena.Handle{start},
		visited:   make(map[arena.Handle]struct{}),
	}
}

func (w *walker) next() (arena.Handle, bool) {
	for len(w.queue) > 0 {
		h := w.queue[0]
		w.queue = w.queue[1:]
		if _, seen := w.visited[h]; seen {
			continue
		}
		w.visited[h] = struct{}{}
		w.queue = append(w.queue, w.neighbors(h)...)
		return h, true
	}
	return arena.Handle{}, false
}

func (w *walker) seq() iter.Seq[arena.Handle] {
	return func(yield func(arena.Handle) bool) {
		for h, ok := w.next(); ok; h, ok = w.next() {
			if !yield(h) {
				return
			}
		}
	}
}

// Traverse walks the handles reachable from start over one category's
// outgoing edges, breadth-first, lazily. start is always produced first,
// every reachable handle exactly once, cycles notwithstanding.
func (g *Graph) Traverse(category arena.Tag, start arena.Handle) iter.Seq[arena.Handle] {
	return newWalker(start, func(h arena.Handle) []arena.Handle {
		return g.Outgoing(category, h)
	}).seq()
}

// TraverseAny is [Graph.Traverse] over the union of every category's
// outgoing edges per step.
func (g *Graph) TraverseAny(start arena.Handle) iter.Seq[arena.Handle] {
	return newWalker(start, g.OutgoingAny).seq()
}

// cycleFrame is one level of the iterative depth-first search in FindCycle.
type cycleFrame struct {
	neighbors []arena.Handle
	next      int
}

// FindCycle searches depth-first from start over one category's outgoing
// edges and returns the first cycle found: the sub-path from the repeated
// handle to the end of the current path, inclusive. Returns nil if no cycle
// is reachable from start.
//
// The search keeps an explicit frame stack instead of recursing, so deep or
// degenerate chains cannot overflow the goroutine stack.
func (g *Graph) FindCycle(category arena.Tag, start arena.Handle) []arena.Handle {
	path := []arena.Handle{start}
	onPath := map[arena.Handle]int{start: 0}
	done := map[arena.Handle]struct{}{start: {}}
	stack := []cycleFrame{{neighbors: g.Outgoing(category, start)}}

	for len(stack) > 0 {
		frame := &stack[len(stack)-1]
		if frame.next >= len(frame.neighbors) {
			// Subtree exhausted without a cycle; backtrack.
			delete(onPath, path[len(path)-1])
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
			continue
		}
		n := frame.neighbors[frame.next]
		frame.next++

		if at, hit := onPath[n]; hit {
			cycle := make([]arena.Handle, len(path)-at)
			copy(cycle, path[at:])
			return cycle
		}
		if _, explored := done[n]; explored {
			// Fully explored from a previous branch; no cycle through it.
			continue
		}
		done[n] = struct{}{}
		onPath[n] = len(path)
		path = append(path, n)
		stack = append(stack, cycleFrame{neighbors: g.Outgoing(category, n)})
	}
	return nil
}

// FindCycles runs [Graph.FindCycle] from every live handle and lazily yields
// the non-empty results. Cycles reachable from several start points are
// reported once per start, so callers needing a canonical cycle set must
// deduplicate.
func (g *Graph) FindCycles(category arena.Tag) iter.Seq[[]arena.Handle] {
	return func(yield func([]arena.Handle) bool) {
		for h := range g.nodes.Handles() {
			if cycle := g.FindCycle(category, h); len(cycle) > 0 {
				if !yield(cycle) {
					return
				}
			}
		}
	}
}
