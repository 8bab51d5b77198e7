package graph_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/relata/relata/pkg/arena"
	"github.com/relata/relata/pkg/graph"
)

// Relation categories. A category is any Go type used as a tag.
type (
	Parent    struct{}
	Child     struct{}
	Effect    struct{}
	Attribute struct{}
	Link      struct{}
)

// Stored value types.
type (
	World      struct{}
	Player     struct{}
	Tree       struct{}
	Fire       struct{}
	Controller struct{ Forward bool }
	Position   struct{ X, Y int }
	Health     struct{ Amount int }
)

var (
	parent    = arena.TagFor[Parent]()
	child     = arena.TagFor[Child]()
	effect    = arena.TagFor[Effect]()
	attribute = arena.TagFor[Attribute]()
	link      = arena.TagFor[Link]()
)

func TestRelateUnrelateParity(t *testing.T) {
	g := graph.New()
	a := graph.Insert(g, World{})
	b := graph.Insert(g, Player{})

	if g.AreRelated(link, a, b) {
		t.Fatal("related before any Relate")
	}
	g.Relate(link, a, b)
	if !g.AreRelated(link, a, b) {
		t.Fatal("not related after Relate")
	}
	if g.AreRelated(link, b, a) {
		t.Error("reverse direction related; edges are directed")
	}

	// Duplicate inserts are idempotent: one Unrelate removes the edge.
	g.Relate(link, a, b)
	g.Unrelate(link, a, b)
	if g.AreRelated(link, a, b) {
		t.Error("still related after Unrelate")
	}
	if got := g.Outgoing(link, a); got != nil {
		t.Errorf("Outgoing after Unrelate = %v, want nil", got)
	}
	if got := g.Incoming(link, b); got != nil {
		t.Errorf("Incoming after Unrelate = %v, want nil", got)
	}

	// Unrelating an absent edge or unknown category is a no-op.
	g.Unrelate(link, a, b)
	g.Unrelate(effect, a, b)
}

func TestRelatePair(t *testing.T) {
	g := graph.New()
	root := graph.Insert(g, World{})
	p := graph.Insert(g, Player{})

	g.RelatePair(parent, child, root, p)
	if !g.AreRelated(child, root, p) {
		t.Error("forward child edge missing")
	}
	if !g.AreRelated(parent, p, root) {
		t.Error("reverse parent edge missing")
	}

	g.UnrelatePair(parent, child, root, p)
	if g.AreRelated(child, root, p) || g.AreRelated(parent, p, root) {
		t.Error("edges survive UnrelatePair")
	}
}

func TestUnrelateAll(t *testing.T) {
	g := graph.New()
	hub := graph.Insert(g, World{})
	a := graph.Insert(g, Player{})
	b := graph.Insert(g, Tree{})

	g.Relate(link, hub, a)
	g.Relate(link, hub, b)
	g.Relate(link, a, hub)

	g.UnrelateAll(link, hub)
	if len(g.Outgoing(link, hub)) != 0 {
		t.Error("outgoing edges survive UnrelateAll")
	}
	// Edges where hub is only the target stay.
	if !g.AreRelated(link, a, hub) {
		t.Error("incoming-role edge removed by UnrelateAll")
	}
	if got := g.Incoming(link, a); got != nil {
		t.Errorf("Incoming(a) = %v, want nil", got)
	}
}

func TestRemoveCascades(t *testing.T) {
	g := graph.New()
	root := graph.Insert(g, World{})
	p := graph.Insert(g, Player{})
	tree := graph.Insert(g, Tree{})

	g.RelatePair(parent, child, root, p)
	g.RelatePair(parent, child, root, tree)
	g.Relate(effect, tree, p)
	g.Relate(attribute, p, tree)

	if err := g.Remove(p); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// The handle is gone from every category, in both roles.
	if got := g.OutgoingAny(p); got != nil {
		t.Errorf("OutgoingAny(removed) = %v, want nil", got)
	}
	if got := g.IncomingAny(p); got != nil {
		t.Errorf("IncomingAny(removed) = %v, want nil", got)
	}
	for _, cat := range g.Categories() {
		for _, e := range g.Edges(cat) {
			if e[0] == p || e[1] == p {
				t.Errorf("category %v still references removed handle: %v", cat, e)
			}
		}
	}

	// Unrelated structure is intact.
	if !g.AreRelated(child, root, tree) {
		t.Error("untouched edge removed by cascade")
	}

	if err := g.Remove(p); !errors.Is(err, arena.ErrNotFound) {
		t.Errorf("second Remove err = %v, want ErrNotFound", err)
	}
}

func TestClear(t *testing.T) {
	g := graph.New()
	a := graph.Insert(g, World{})
	b := graph.Insert(g, Player{})
	g.Relate(link, a, b)

	g.Clear()
	if g.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", g.Len())
	}
	if g.Contains(a) || g.Contains(b) {
		t.Error("handles live after Clear")
	}
	if got := g.Categories(); len(got) != 0 {
		t.Errorf("Categories after Clear = %v, want none", got)
	}
}

func TestTypedAccess(t *testing.T) {
	g := graph.New()
	h := graph.Insert(g, Position{X: 3, Y: 4})

	if !graph.Is[Position](g, h) {
		t.Error("Is[Position] = false")
	}
	if graph.Is[Health](g, h) {
		t.Error("Is[Health] = true")
	}

	w, err := graph.Write[Position](g, h)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.Value().X = 30
	w.Close()

	r, err := graph.Read[Position](g, h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer r.Close()
	if r.Value().X != 30 {
		t.Errorf("X = %d, want 30", r.Value().X)
	}

	if _, err := graph.Read[Health](g, h); !errors.Is(err, arena.ErrTypeMismatch) {
		t.Errorf("Read wrong type err = %v, want ErrTypeMismatch", err)
	}
}

func TestFind(t *testing.T) {
	g := graph.New()
	root := graph.Insert(g, World{})
	p := graph.Insert(g, Player{})
	t1 := graph.Insert(g, Tree{})
	t2 := graph.Insert(g, Tree{})

	g.Relate(child, root, p)
	g.Relate(child, root, t1)
	g.Relate(child, root, t2)

	trees := graph.Find[Tree](g, child, root)
	if len(trees) != 2 {
		t.Fatalf("Find[Tree] = %d handles, want 2", len(trees))
	}
	for _, h := range trees {
		if !graph.Is[Tree](g, h) {
			t.Errorf("Find yielded non-tree %v", h)
		}
	}
	if len(graph.Find[Fire](g, child, root)) != 0 {
		t.Error("Find[Fire] found something")
	}
}

func TestMergedNeighbors(t *testing.T) {
	g := graph.New()
	a := graph.Insert(g, World{})
	b := graph.Insert(g, Player{})
	c := graph.Insert(g, Tree{})

	g.Relate(link, a, b)
	g.Relate(effect, a, b) // same neighbor under a second category
	g.Relate(attribute, a, c)
	g.Relate(link, c, a)

	out := g.OutgoingAny(a)
	if len(out) != 2 {
		t.Errorf("OutgoingAny = %v, want 2 deduplicated handles", out)
	}
	in := g.IncomingAny(a)
	if len(in) != 1 || in[0] != c {
		t.Errorf("IncomingAny = %v, want [c]", in)
	}
}

func TestTraverse(t *testing.T) {
	g := graph.New()
	// root → a, b; a → leaf; b → leaf; leaf → root (cycle back).
	root := graph.Insert(g, World{})
	a := graph.Insert(g, Player{})
	b := graph.Insert(g, Tree{})
	leaf := graph.Insert(g, Fire{})

	g.Relate(link, root, a)
	g.Relate(link, root, b)
	g.Relate(link, a, leaf)
	g.Relate(link, b, leaf)
	g.Relate(link, leaf, root)

	var order []arena.Handle
	for h := range g.Traverse(link, root) {
		order = append(order, h)
	}

	if len(order) != 4 {
		t.Fatalf("traverse yielded %d handles, want 4: %v", len(order), order)
	}
	if order[0] != root {
		t.Errorf("traverse did not start with the root: %v", order)
	}
	seen := make(map[arena.Handle]int)
	for _, h := range order {
		seen[h]++
	}
	for h, n := range seen {
		if n != 1 {
			t.Errorf("handle %v visited %d times, want 1", h, n)
		}
	}
	// Breadth first: both direct neighbors precede the leaf.
	leafAt := slices.Index(order, leaf)
	if leafAt < 3 {
		t.Errorf("leaf visited at position %d, want last", leafAt)
	}
}

func TestTraverseAny(t *testing.T) {
	g := graph.New()
	root := graph.Insert(g, World{})
	a := graph.Insert(g, Player{})
	b := graph.Insert(g, Tree{})

	g.Relate(link, root, a)
	g.Relate(effect, a, b)

	var count int
	for range g.TraverseAny(root) {
		count++
	}
	if count != 3 {
		t.Errorf("TraverseAny visited %d handles, want 3 across categories", count)
	}

	// Single-category traversal does not cross into other categories.
	count = 0
	for range g.Traverse(link, root) {
		count++
	}
	if count != 2 {
		t.Errorf("Traverse(link) visited %d handles, want 2", count)
	}
}

func TestTraverseLazyStop(t *testing.T) {
	g := graph.New()
	root := graph.Insert(g, World{})
	prev := root
	for i := 0; i < 100; i++ {
		next := graph.Insert(g, Tree{})
		g.Relate(link, prev, next)
		prev = next
	}

	count := 0
	for range g.Traverse(link, root) {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("stopped traversal yielded %d, want 3", count)
	}
}

func TestFindCycle(t *testing.T) {
	g := graph.New()
	a := graph.Insert(g, World{})
	b := graph.Insert(g, World{})
	c := graph.Insert(g, World{})
	d := graph.Insert(g, World{})

	// Diamond: a→b, a→c, b→d, c→d. No cycle.
	g.Relate(link, a, b)
	g.Relate(link, a, c)
	g.Relate(link, b, d)
	g.Relate(link, c, d)

	if cycle := g.FindCycle(link, a); cycle != nil {
		t.Fatalf("FindCycle on a DAG = %v, want nil", cycle)
	}
	for range g.FindCycles(link) {
		t.Fatal("FindCycles on a DAG yielded a cycle")
	}

	// Closing the diamond makes every start point find one.
	g.Relate(link, d, a)

	cycle := g.FindCycle(link, a)
	if len(cycle) == 0 {
		t.Fatal("FindCycle found nothing after closing the diamond")
	}
	members := make(map[arena.Handle]bool, len(cycle))
	for _, h := range cycle {
		members[h] = true
	}
	if !members[a] || !members[d] {
		t.Errorf("cycle %v does not contain both a and d", cycle)
	}
	if !members[b] && !members[c] {
		t.Errorf("cycle %v contains neither middle node", cycle)
	}
	// The cycle is the closing sub-path only: it never contains both
	// branches of the diamond.
	if members[b] && members[c] {
		t.Errorf("cycle %v contains both branches", cycle)
	}

	var found int
	for range g.FindCycles(link) {
		found++
	}
	if found == 0 {
		t.Error("FindCycles found nothing")
	}
}

func TestFindCycleSelfLoop(t *testing.T) {
	g := graph.New()
	a := graph.Insert(g, World{})
	g.Relate(link, a, a)

	cycle := g.FindCycle(link, a)
	if len(cycle) != 1 || cycle[0] != a {
		t.Errorf("self-loop cycle = %v, want [a]", cycle)
	}
}

func TestFindCycleDeepChain(t *testing.T) {
	// A long chain closed at the end; the explicit-stack search must not
	// overflow on depth.
	g := graph.New()
	const depth = 50000
	first := graph.Insert(g, Tree{})
	prev := first
	for i := 1; i < depth; i++ {
		next := graph.Insert(g, Tree{})
		g.Relate(link, prev, next)
		prev = next
	}
	g.Relate(link, prev, first)

	cycle := g.FindCycle(link, first)
	if len(cycle) != depth {
		t.Errorf("cycle length = %d, want %d", len(cycle), depth)
	}
}

func TestCycleUnreachableFromStart(t *testing.T) {
	g := graph.New()
	a := graph.Insert(g, World{})
	b := graph.Insert(g, World{})
	c := graph.Insert(g, World{})

	// a is outside the b↔c cycle and cannot reach it.
	g.Relate(link, b, c)
	g.Relate(link, c, b)

	if cycle := g.FindCycle(link, a); cycle != nil {
		t.Errorf("FindCycle from outside = %v, want nil", cycle)
	}
	var found int
	for range g.FindCycles(link) {
		found++
	}
	if found != 2 {
		t.Errorf("FindCycles reported %d results, want 2 (one per start in the cycle)", found)
	}
}
