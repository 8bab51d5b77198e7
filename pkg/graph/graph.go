package graph

import (
	"cmp"
	"slices"

	"github.com/relata/relata/pkg/arena"
)

// Graph combines a type-heterogeneous value store with typed directed
// relations between the stored values. Values live in an [arena.Arena] and
// are named by opaque handles; relations are grouped into categories, where
// a category is simply a Go type used as a tag (see [arena.TagFor]).
//
// The zero value is not usable; create graphs with [New]. A Graph is not
// safe for concurrent use without external synchronization; the only
// per-value protection is the arena's guard bookkeeping.
type Graph struct {
	nodes     *arena.Arena
	relations map[arena.Tag]*relationTable
}

// New creates an empty graph backed by a fresh arena.
func New() *Graph {
	return &Graph{
		nodes:     arena.New(),
		relations: make(map[arena.Tag]*relationTable),
	}
}

// Insert stores a value and returns its handle.
func Insert[T any](g *Graph, value T) arena.Handle {
	return arena.Insert(g.nodes, value)
}

// Remove deletes the value a handle references and purges the handle from
// every relation category, in both the source and the target role, so no
// relation table is left pointing at a freed slot. Returns
// [arena.ErrNotFound] if the handle is not live.
func (g *Graph) Remove(h arena.Handle) error {
	if err := g.nodes.Remove(h); err != nil {
		return err
	}
	for _, table := range g.relations {
		table.purge(h)
	}
	return nil
}

// Clear drops every value and every relation table. All previously issued
// handles become invalid.
func (g *Graph) Clear() {
	g.nodes.Clear()
	g.relations = make(map[arena.Tag]*relationTable)
}

// Len returns the number of stored values.
func (g *Graph) Len() int { return g.nodes.Len() }

// Arena exposes the backing value store. It is intended for snapshot and
// iteration surfaces; removing values directly through the arena bypasses
// relation cleanup, so mutate through the graph instead.
func (g *Graph) Arena() *arena.Arena { return g.nodes }

// Contains reports whether the handle references a live value.
func (g *Graph) Contains(h arena.Handle) bool { return g.nodes.Contains(h) }

// Is reports whether the handle references a live value of type T.
func Is[T any](g *Graph, h arena.Handle) bool {
	return arena.Is[T](g.nodes, h)
}

// Read grants shared access to the value as type T. See [arena.Read].
func Read[T any](g *Graph, h arena.Handle) (*arena.ReadGuard[T], error) {
	return arena.Read[T](g.nodes, h)
}

// Write grants exclusive access to the value as type T. See [arena.Write].
func Write[T any](g *Graph, h arena.Handle) (*arena.WriteGuard[T], error) {
	return arena.Write[T](g.nodes, h)
}

// Relate adds the edge from→to under a relation category. The category's
// table is created on first use. Adding an existing edge is a no-op;
// relation edges form a set, not a sequence.
func (g *Graph) Relate(category arena.Tag, from, to arena.Handle) {
	table := g.relations[category]
	if table == nil {
		table = newRelationTable()
		g.relations[category] = table
	}
	table.insert(from, to)
}

// RelatePair records a bidirectional relationship in one call: the forward
// edge from→to under the out category and the reverse edge to→from under
// the in category. Querying either direction is then a single-category
// outgoing lookup.
func (g *Graph) RelatePair(in, out arena.Tag, from, to arena.Handle) {
	g.Relate(out, from, to)
	g.Relate(in, to, from)
}

// Unrelate removes the edge from→to under a category. Removing an absent
// edge is a no-op.
func (g *Graph) Unrelate(category arena.Tag, from, to arena.Handle) {
	if table := g.relations[category]; table != nil {
		table.remove(from, to)
	}
}

// UnrelatePair removes both edges recorded by [Graph.RelatePair].
func (g *Graph) UnrelatePair(in, out arena.Tag, from, to arena.Handle) {
	g.Unrelate(out, from, to)
	g.Unrelate(in, to, from)
}

// UnrelateAll removes every edge under a category where from is the source.
// Edges where from is only a target are kept; use [Graph.Remove] to purge a
// handle from both roles.
func (g *Graph) UnrelateAll(category arena.Tag, from arena.Handle) {
	if table := g.relations[category]; table != nil {
		table.removeAll(from)
	}
}

// AreRelated reports whether the edge from→to exists under a category.
func (g *Graph) AreRelated(category arena.Tag, from, to arena.Handle) bool {
	table := g.relations[category]
	return table != nil && table.contains(from, to)
}

// Outgoing returns the targets of from under a category, in a stable order.
// An unknown category or handle yields nil.
func (g *Graph) Outgoing(category arena.Tag, from arena.Handle) []arena.Handle {
	table := g.relations[category]
	if table == nil {
		return nil
	}
	return table.outgoingOf(from)
}

// Incoming returns the sources pointing at to under a category, in a stable
// order. An unknown category or handle yields nil.
func (g *Graph) Incoming(category arena.Tag, to arena.Handle) []arena.Handle {
	table := g.relations[category]
	if table == nil {
		return nil
	}
	return table.incomingOf(to)
}

// OutgoingAny returns the targets of from merged across every category,
// deduplicated, in a stable order.
func (g *Graph) OutgoingAny(from arena.Handle) []arena.Handle {
	return mergeNeighbors(g.relations, func(t *relationTable) []arena.Handle {
		return t.outgoingOf(from)
	})
}

// IncomingAny returns the sources pointing at to merged across every
// category, deduplicated, in a stable order.
func (g *Graph) IncomingAny(to arena.Handle) []arena.Handle {
	return mergeNeighbors(g.relations, func(t *relationTable) []arena.Handle {
		return t.incomingOf(to)
	})
}

// Categories returns the tags of every relation category with at least one
// edge, in a stable order.
func (g *Graph) Categories() []arena.Tag {
	var tags []arena.Tag
	for tag, table := range g.relations {
		if !table.empty() {
			tags = append(tags, tag)
		}
	}
	slices.SortFunc(tags, func(a, b arena.Tag) int {
		return cmp.Compare(a.String(), b.String())
	})
	return tags
}

// Edges returns every (from, to) edge of a category in a stable order.
// An unknown category yields nil.
func (g *Graph) Edges(category arena.Tag) [][2]arena.Handle {
	table := g.relations[category]
	if table == nil {
		return nil
	}
	return table.edges()
}

// Find returns the outgoing neighbors of from under a category whose stored
// value is of type T.
func Find[T any](g *Graph, category arena.Tag, from arena.Handle) []arena.Handle {
	var out []arena.Handle
	for _, h := range g.Outgoing(category, from) {
		if Is[T](g, h) {
			out = append(out, h)
		}
	}
	return out
}

func mergeNeighbors(tables map[arena.Tag]*relationTable, pick func(*relationTable) []arena.Handle) []arena.Handle {
	seen := make(map[arena.Handle]struct{})
	var out []arena.Handle
	for _, table := range tables {
		for _, h := range pick(table) {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	slices.SortFunc(out, compareHandles)
	return out
}
