package graph

import (
	"cmp"
	"slices"

	"github.com/relata/relata/pkg/arena"
)

// relationTable stores the edge set of one relation category as two
// multimaps, outgoing and incoming, kept as inverse views of each other.
// Every mutation updates both maps; the two must always describe the same
// edge set from opposite directions.
type relationTable struct {
	outgoing map[arena.Handle]map[arena.Handle]struct{}
	incoming map[arena.Handle]map[arena.Handle]struct{}
}

func newRelationTable() *relationTable {
	return &relationTable{
		outgoing: make(map[arena.Handle]map[arena.Handle]struct{}),
		incoming: make(map[arena.Handle]map[arena.Handle]struct{}),
	}
}

// insert adds the edge from→to. Duplicate inserts are idempotent.
func (t *relationTable) insert(from, to arena.Handle) {
	addEdge(t.outgoing, from, to)
	addEdge(t.incoming, to, from)
}

// remove drops the edge from→to from both maps.
func (t *relationTable) remove(from, to arena.Handle) {
	dropEdge(t.outgoing, from, to)
	dropEdge(t.incoming, to, from)
}

// removeAll drops every edge where h is the source, fixing up incoming
// entries of the former targets. Edges where h is only a target are
// untouched; see purge.
func (t *relationTable) removeAll(h arena.Handle) {
	for to := range t.outgoing[h] {
		dropEdge(t.incoming, to, h)
	}
	delete(t.outgoing, h)
}

// purge drops every edge that mentions h in either role. This is the
// cascading-delete hook the graph runs when an entity is removed.
func (t *relationTable) purge(h arena.Handle) {
	t.removeAll(h)
	for from := range t.incoming[h] {
		dropEdge(t.outgoing, from, h)
	}
	delete(t.incoming, h)
}

func (t *relationTable) contains(from, to arena.Handle) bool {
	_, ok := t.outgoing[from][to]
	return ok
}

// outgoingOf returns the targets of h in a deterministic order.
// Returns nil when h has no outgoing edges.
func (t *relationTable) outgoingOf(h arena.Handle) []arena.Handle {
	return sortedHandles(t.outgoing[h])
}

// incomingOf returns the sources pointing at h in a deterministic order.
// Returns nil when h has no incoming edges.
func (t *relationTable) incomingOf(h arena.Handle) []arena.Handle {
	return sortedHandles(t.incoming[h])
}

// edges returns every (from, to) pair in deterministic order, for
// serialization and equality checks.
func (t *relationTable) edges() [][2]arena.Handle {
	var out [][2]arena.Handle
	for from := range t.outgoing {
		for _, to := range sortedHandles(t.outgoing[from]) {
			out = append(out, [2]arena.Handle{from, to})
		}
	}
	slices.SortFunc(out, func(a, b [2]arena.Handle) int {
		if c := compareHandles(a[0], b[0]); c != 0 {
			return c
		}
		return compareHandles(a[1], b[1])
	})
	return out
}

func (t *relationTable) empty() bool {
	return len(t.outgoing) == 0 && len(t.incoming) == 0
}

func addEdge(m map[arena.Handle]map[arena.Handle]struct{}, key, val arena.Handle) {
	set := m[key]
	if set == nil {
		set = make(map[arena.Handle]struct{})
		m[key] = set
	}
	set[val] = struct{}{}
}

func dropEdge(m map[arena.Handle]map[arena.Handle]struct{}, key, val arena.Handle) {
	set := m[key]
	if set == nil {
		return
	}
	delete(set, val)
	if len(set) == 0 {
		delete(m, key)
	}
}

func sortedHandles(set map[arena.Handle]struct{}) []arena.Handle {
	if len(set) == 0 {
		return nil
	}
	out := make([]arena.Handle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	slices.SortFunc(out, compareHandles)
	return out
}

// compareHandles orders handles by type tag, then slot, then generation.
// The order is arbitrary but stable, which keeps neighbor enumeration and
// serialized edge lists deterministic.
func compareHandles(a, b arena.Handle) int {
	if c := cmp.Compare(a.Tag().String(), b.Tag().String()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Slot(), b.Slot()); c != 0 {
		return c
	}
	return cmp.Compare(a.Generation(), b.Generation())
}
