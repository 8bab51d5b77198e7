package graph_test

import (
	"fmt"

	"github.com/relata/relata/pkg/arena"
	"github.com/relata/relata/pkg/graph"
)

type Owns struct{}

type Inventory struct{ Slots int }

type Item struct{ Name string }

func ExampleGraph() {
	// Build a small world: a player owning two items.
	g := graph.New()
	player := graph.Insert(g, Inventory{Slots: 8})
	sword := graph.Insert(g, Item{Name: "sword"})
	shield := graph.Insert(g, Item{Name: "shield"})

	owns := arena.TagFor[Owns]()
	g.Relate(owns, player, sword)
	g.Relate(owns, player, shield)

	fmt.Println("Nodes:", g.Len())
	fmt.Println("Owned:", len(g.Outgoing(owns, player)))

	// Removing a node also removes every relation touching it.
	_ = g.Remove(sword)
	fmt.Println("Owned after drop:", len(g.Outgoing(owns, player)))
	// Output:
	// Nodes: 3
	// Owned: 2
	// Owned after drop: 1
}

func ExampleGraph_Traverse() {
	// A three-level containment chain: world -> chest -> coin.
	g := graph.New()
	world := graph.Insert(g, Item{Name: "world"})
	chest := graph.Insert(g, Item{Name: "chest"})
	coin := graph.Insert(g, Item{Name: "coin"})

	contains := arena.TagFor[Owns]()
	g.Relate(contains, world, chest)
	g.Relate(contains, chest, coin)

	// Breadth-first from the root, root included.
	for h := range g.Traverse(contains, world) {
		r, err := graph.Read[Item](g, h)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Println(r.Value().Name)
		r.Close()
	}
	// Output:
	// world
	// chest
	// coin
}

func ExampleGraph_FindCycle() {
	g := graph.New()
	a := graph.Insert(g, Item{Name: "a"})
	b := graph.Insert(g, Item{Name: "b"})
	c := graph.Insert(g, Item{Name: "c"})

	follows := arena.TagFor[Owns]()
	g.Relate(follows, a, b)
	g.Relate(follows, b, c)
	g.Relate(follows, c, a)

	cycle := g.FindCycle(follows, a)
	fmt.Println("Cycle length:", len(cycle))
	// Output:
	// Cycle length: 3
}

func ExampleGraph_Query() {
	// Count the items a player owns, reading each name through a guard.
	g := graph.New()
	player := graph.Insert(g, Inventory{Slots: 4})
	owns := arena.TagFor[Owns]()
	g.Relate(owns, player, graph.Insert(g, Item{Name: "rope"}))
	g.Relate(owns, player, graph.Insert(g, Item{Name: "torch"}))

	q := g.Query(graph.Related(owns, graph.ReadOf[Item]()), player)
	defer q.Close()

	count := 0
	for v, ok := q.Next(); ok; v, ok = q.Next() {
		_ = v.(*arena.ReadGuard[Item]).Value().Name
		count++
	}
	fmt.Println("Items:", count)
	// Output:
	// Items: 2
}
