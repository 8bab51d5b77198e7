// Package graph implements an in-memory, type-heterogeneous entity store
// with typed directed relations and a composable query algebra.
//
// # Entities and relations
//
// Values of arbitrary Go types are inserted into a graph and named by opaque
// [arena.Handle] references. Any two stored values can be connected under a
// relation category; a category is a Go type used purely as a tag, so
// distinct edge kinds ("parent of", "has effect") are distinguished by
// distinct types:
//
//	type Parent struct{}
//	type Child struct{}
//
//	g := graph.New()
//	root := graph.Insert(g, World{})
//	player := graph.Insert(g, Player{})
//	g.RelatePair(arena.TagFor[Parent](), arena.TagFor[Child](), root, player)
//
// Each category keeps outgoing and incoming edge indexes as inverse views of
// one edge set. Removing an entity cascades: the handle is purged from every
// category in both roles before its slot is reclaimed, so relation tables
// never dangle.
//
// # Traversal
//
// [Graph.Traverse] walks the handles reachable over one category
// breadth-first, lazily and deduplicated, so it terminates on cyclic graphs.
// [Graph.FindCycle] runs an explicit-stack depth-first search and returns
// the first reachable cycle as the sub-path that closes it.
//
// # Queries
//
// Queries compose a [Fetch] (how values are pulled from the root: the root
// handle itself, its related neighbors, its whole traversal, a tuple zip)
// with [Transform] steps (what each handle projects to: itself, a
// type-filtered handle, a typed accessor, a nested sub-query):
//
//	q := g.Query(graph.Related(childTag, graph.SubQuery(
//	    graph.NodeOf[Tree](),
//	    graph.Tuple(graph.HandleFetch, graph.Related(effectTag, graph.IsA[Fire]())),
//	)), root)
//	defer q.Close()
//	for v, ok := q.Next(); ok; v, ok = q.Next() {
//	    row := v.(graph.Row)
//	    // row[0] is the tree handle, row[1] a Unit marking the fire effect
//	}
//
// Projections that cannot be granted (type mismatch, conflicting accessor)
// produce nothing rather than failing the query.
package graph
