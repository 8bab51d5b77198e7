// Package pkg provides the core libraries for Relata entity-graph storage.
//
// # Overview
//
// Relata is an in-memory store for heterogeneous typed values connected by
// typed directed relations, with snapshot persistence and rendering on top.
// The pkg directory is organized into three main areas:
//
//  1. [arena] / [graph] - Domain logic (typed slot storage, relations, queries)
//  2. [prefab] / [store] - Persistence (snapshot documents and their backends)
//  3. [render] / [cache] - Visualization (DOT/SVG rendering and artifact cache)
//
// # Architecture
//
// The typical data flow through Relata:
//
//	Application values
//	         ↓
//	    [arena] package (typed slots, generational handles, access guards)
//	         ↓
//	    [graph] package (relations, traversal, composable queries)
//	         ↓
//	    [prefab] package (archetype-grouped snapshot documents)
//	         ↓
//	    [store] package (memory, file, Redis, MongoDB backends)
//
// # Quick Start
//
// Build a graph, snapshot it, and store the snapshot:
//
//	import (
//	    "context"
//	    "github.com/relata/relata/pkg/arena"
//	    "github.com/relata/relata/pkg/graph"
//	    "github.com/relata/relata/pkg/prefab"
//	    "github.com/relata/relata/pkg/store"
//	)
//
//	// 1. Populate a graph
//	g := graph.New()
//	world := graph.Insert(g, World{Name: "overworld"})
//	tree := graph.Insert(g, Tree{Height: 4})
//	g.Relate(contains, world, tree)
//
//	// 2. Snapshot it
//	reg := arena.NewRegistry()
//	arena.RegisterType[World](reg)
//	arena.RegisterType[Tree](reg)
//	p, _ := prefab.Snapshot(g, prefab.JSON, reg)
//
//	// 3. Persist the snapshot
//	s, _ := store.NewFileStore("")
//	_ = s.Put(context.Background(), p)
//
// # Main Packages
//
// [arena] - Typed slot storage. Values of any registered Go type live in
// per-type columns addressed by generational handles; reads and writes go
// through guards that enforce many-readers or one-writer per value.
//
// [graph] - Relations and queries over an arena. Typed directed edges form a
// multigraph; traversal is breadth-first, cycle detection runs on an explicit
// stack, and the query layer composes fetches and transforms into result
// streams with positional tuple zipping.
//
// [prefab] - Snapshot documents. A prefab groups entities by archetype,
// captures relation edges by endpoint reference, and restores into a fresh
// graph with a handle remapping table. Payload encoding is pluggable (JSON,
// MessagePack).
//
// [store] - Snapshot persistence backends: memory (testing), file (CLI),
// Redis (shared cache semantics with TTL), MongoDB (durable).
//
// [render] - DOT and SVG rendering of snapshot structure via Graphviz.
//
// [cache] - Byte cache for rendered artifacts, keyed by snapshot ID and
// render options.
//
// [observability] - Process-global hook registries for store, render, and
// cache instrumentation.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/graph/...    # Specific package
//	go test -run Example       # Examples only
//
// [arena]: https://pkg.go.dev/github.com/relata/relata/pkg/arena
// [graph]: https://pkg.go.dev/github.com/relata/relata/pkg/graph
// [prefab]: https://pkg.go.dev/github.com/relata/relata/pkg/prefab
// [store]: https://pkg.go.dev/github.com/relata/relata/pkg/store
// [render]: https://pkg.go.dev/github.com/relata/relata/pkg/render
// [cache]: https://pkg.go.dev/github.com/relata/relata/pkg/cache
// [observability]: https://pkg.go.dev/github.com/relata/relata/pkg/observability
package pkg
