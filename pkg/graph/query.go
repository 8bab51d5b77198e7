package graph

import (
	"io"

	"github.com/relata/relata/pkg/arena"
)

// The query algebra composes two kinds of pieces, always rooted at a single
// handle:
//
//   - A [Transform] expands one handle into zero or more projected values
//     (the handle itself, a type-filtered handle, a typed accessor, the
//     results of a nested query, ...).
//   - A [Fetch] turns a pipeline into a pull-iterator: it builds its access
//     state once from the root, then produces values one pull at a time.
//
// [Graph.Query] runs a Fetch and returns a [Results] iterator. Projections
// that cannot be granted (wrong type, conflicting guard) produce nothing
// instead of failing the query.

// Unit is the output of predicate transforms such as [IsA]; it carries no
// data beyond its presence.
type Unit struct{}

// Row is the paired output of a [Tuple] fetch, one element per component.
type Row []any

// Transform expands one input handle into zero or more projected values.
type Transform interface {
	Transform(g *Graph, h arena.Handle) []any
}

// Fetch builds a stateful pull-iterator rooted at one handle.
type Fetch interface {
	Access(g *Graph, root arena.Handle) Access
}

// Access is the pull side of a [Fetch]: each Next call produces the next
// projected value until the fetch is exhausted. Close releases guards held
// by values the access produced but never yielded; it is idempotent and
// never touches values already handed out.
type Access interface {
	Next() (any, bool)
	Close()
}

// Query runs a fetch pipeline rooted at one handle. The access state is
// built immediately; values are produced lazily by [Results.Next].
func (g *Graph) Query(fetch Fetch, root arena.Handle) *Results {
	return &Results{access: fetch.Access(g, root)}
}

// Results pulls the projected values of one query. Accessor guards yielded
// by a pull stay live until the next pull (or Close); only the
// currently-yielded value may hold guards.
type Results struct {
	access Access
	live   any
	done   bool
}

// Next returns the next projected value, releasing any guards held by the
// previously yielded one. Returns false when the query is exhausted.
func (r *Results) Next() (any, bool) {
	closeValue(r.live)
	r.live = nil
	if r.done {
		return nil, false
	}
	v, ok := r.access.Next()
	if !ok {
		r.done = true
		r.access.Close()
		return nil, false
	}
	r.live = v
	return v, true
}

// Close ends the query, releasing the guards of the last yielded value and
// any guards still buffered inside the pipeline. Close is idempotent; an
// abandoned query holds nothing after it returns.
func (r *Results) Close() {
	closeValue(r.live)
	r.live = nil
	r.done = true
	r.access.Close()
}

// Collect drains the remaining results into a slice. Guard values collected
// this way stay live; the caller owns closing them.
func (r *Results) Collect() []any {
	var out []any
	for {
		if r.done {
			return out
		}
		v, ok := r.access.Next()
		if !ok {
			r.done = true
			r.access.Close()
			return out
		}
		out = append(out, v)
	}
}

// closeValue releases every accessor guard inside a projected value.
// Rows are walked recursively; plain handles and units are untouched.
func closeValue(v any) {
	switch val := v.(type) {
	case nil:
	case Row:
		for _, item := range val {
			closeValue(item)
		}
	case io.Closer:
		val.Close()
	}
}

// =============================================================================
// Transforms
// =============================================================================

type identityTransform struct{}

func (identityTransform) Transform(_ *Graph, h arena.Handle) []any {
	return []any{h}
}

// Identity passes the input handle through unchanged.
var Identity Transform = identityTransform{}

type nodeTransform struct{ tag arena.Tag }

func (t nodeTransform) Transform(g *Graph, h arena.Handle) []any {
	if g.nodes.IsTag(h, t.tag) {
		return []any{h}
	}
	return nil
}

// NodeOf passes the input handle through only if it stores a value of type
// T; otherwise it produces nothing.
func NodeOf[T any]() Transform {
	return nodeTransform{tag: arena.TagFor[T]()}
}

type isTransform struct {
	tag    arena.Tag
	negate bool
}

func (t isTransform) Transform(g *Graph, h arena.Handle) []any {
	if g.nodes.IsTag(h, t.tag) != t.negate {
		return []any{Unit{}}
	}
	return nil
}

// IsA produces one [Unit] iff the input handle stores a value of type T.
func IsA[T any]() Transform {
	return isTransform{tag: arena.TagFor[T]()}
}

// IsNotA produces one [Unit] iff the input handle does not store a value of
// type T.
func IsNotA[T any]() Transform {
	return isTransform{tag: arena.TagFor[T](), negate: true}
}

type readTransform[T any] struct{}

func (readTransform[T]) Transform(g *Graph, h arena.Handle) []any {
	guard, err := Read[T](g, h)
	if err != nil {
		return nil
	}
	return []any{guard}
}

// ReadOf produces a shared accessor (*arena.ReadGuard[T]) for the input
// handle's value, or nothing if the type does not match or access cannot be
// granted.
func ReadOf[T any]() Transform { return readTransform[T]{} }

type writeTransform[T any] struct{}

func (writeTransform[T]) Transform(g *Graph, h arena.Handle) []any {
	guard, err := Write[T](g, h)
	if err != nil {
		return nil
	}
	return []any{guard}
}

// WriteOf produces an exclusive accessor (*arena.WriteGuard[T]) for the
// input handle's value, or nothing if the type does not match or access
// cannot be granted.
func WriteOf[T any]() Transform { return writeTransform[T]{} }

type maybeReadTransform[T any] struct{}

func (maybeReadTransform[T]) Transform(g *Graph, h arena.Handle) []any {
	guard, err := Read[T](g, h)
	if err != nil {
		return []any{(*arena.ReadGuard[T])(nil)}
	}
	return []any{guard}
}

// MaybeReadOf always produces exactly one output: a shared accessor, or a
// nil *arena.ReadGuard[T] when the value is not readable as T.
func MaybeReadOf[T any]() Transform { return maybeReadTransform[T]{} }

type maybeWriteTransform[T any] struct{}

func (maybeWriteTransform[T]) Transform(g *Graph, h arena.Handle) []any {
	guard, err := Write[T](g, h)
	if err != nil {
		return []any{(*arena.WriteGuard[T])(nil)}
	}
	return []any{guard}
}

// MaybeWriteOf always produces exactly one output: an exclusive accessor,
// or a nil *arena.WriteGuard[T] when the value is not writable as T.
func MaybeWriteOf[T any]() Transform { return maybeWriteTransform[T]{} }

type limitTransform struct {
	n     int
	inner Transform
}

func (t limitTransform) Transform(g *Graph, h arena.Handle) []any {
	out := t.inner.Transform(g, h)
	if len(out) <= t.n {
		return out
	}
	for _, dropped := range out[t.n:] {
		closeValue(dropped)
	}
	return out[:t.n]
}

// LimitTo truncates the inner transform's outputs to at most n per input
// handle. Guards held by truncated outputs are released.
func LimitTo(n int, inner Transform) Transform {
	return limitTransform{n: n, inner: inner}
}

// Single is [LimitTo] with a limit of one.
func Single(inner Transform) Transform {
	return LimitTo(1, inner)
}

type subQueryTransform struct {
	inner Transform
	fetch Fetch
}

func (t subQueryTransform) Transform(g *Graph, h arena.Handle) []any {
	var out []any
	for _, v := range t.inner.Transform(g, h) {
		root, ok := v.(arena.Handle)
		if !ok {
			closeValue(v)
			continue
		}
		access := t.fetch.Access(g, root)
		for item, more := access.Next(); more; item, more = access.Next() {
			out = append(out, item)
		}
		access.Close()
	}
	return out
}

// SubQuery runs a full fetch pipeline rooted at each handle the inner
// transform produces and yields every result. The inner transform must
// produce handles (for example [Identity] or [NodeOf]); this is how
// multi-hop filtered projections compose.
func SubQuery(inner Transform, fetch Fetch) Transform {
	return subQueryTransform{inner: inner, fetch: fetch}
}

// =============================================================================
// Fetches
// =============================================================================

type sliceAccess struct {
	values []any
	i      int
}

func (a *sliceAccess) Next() (any, bool) {
	if a.i >= len(a.values) {
		return nil, false
	}
	v := a.values[a.i]
	a.i++
	return v, true
}

func (a *sliceAccess) Close() {
	for ; a.i < len(a.values); a.i++ {
		closeValue(a.values[a.i])
	}
}

type unitFetch struct{}

func (unitFetch) Access(*Graph, arena.Handle) Access {
	return &sliceAccess{values: []any{Unit{}}}
}

// UnitFetch yields exactly one [Unit], then ends.
var UnitFetch Fetch = unitFetch{}

type handleFetch struct{}

func (handleFetch) Access(_ *Graph, root arena.Handle) Access {
	return &sliceAccess{values: []any{root}}
}

// HandleFetch yields the root handle, then ends.
var HandleFetch Fetch = handleFetch{}

// flatMapAccess applies a transform to a stream of handles and flattens the
// outputs, pulling one handle ahead at a time.
type flatMapAccess struct {
	g         *Graph
	transform Transform
	pull      func() (arena.Handle, bool)
	buf       []any
	bi        int
}

func (a *flatMapAccess) Next() (any, bool) {
	for {
		if a.bi < len(a.buf) {
			v := a.buf[a.bi]
			a.bi++
			return v, true
		}
		h, ok := a.pull()
		if !ok {
			return nil, false
		}
		a.buf = a.transform.Transform(a.g, h)
		a.bi = 0
	}
}

// Close releases the unyielded remainder of the current batch. Transforms
// such as [SubQuery] can buffer several guards per input handle, so
// abandonment must not strand them.
func (a *flatMapAccess) Close() {
	for ; a.bi < len(a.buf); a.bi++ {
		closeValue(a.buf[a.bi])
	}
}

func pullFromSlice(handles []arena.Handle) func() (arena.Handle, bool) {
	i := 0
	return func() (arena.Handle, bool) {
		if i >= len(handles) {
			return arena.Handle{}, false
		}
		h := handles[i]
		i++
		return h, true
	}
}

type relatedFetch struct {
	category  arena.Tag
	transform Transform
}

func (f relatedFetch) Access(g *Graph, root arena.Handle) Access {
	return &flatMapAccess{
		g:         g,
		transform: f.transform,
		pull:      pullFromSlice(g.Outgoing(f.category, root)),
	}
}

// Related applies a transform to each outgoing neighbor of the root under
// one category and flattens the outputs. Neighbors are enumerated in the
// graph's stable neighbor order.
func Related(category arena.Tag, transform Transform) Fetch {
	return relatedFetch{category: category, transform: transform}
}

type traverseFetch struct {
	category  arena.Tag
	transform Transform
}

func (f traverseFetch) Access(g *Graph, root arena.Handle) Access {
	w := newWalker(root, func(h arena.Handle) []arena.Handle {
		return g.Outgoing(f.category, h)
	})
	return &flatMapAccess{g: g, transform: f.transform, pull: w.next}
}

// TraverseVia is [Related] over the breadth-first traversal sequence from
// the root (including the root itself) instead of direct neighbors only.
func TraverseVia(category arena.Tag, transform Transform) Fetch {
	return traverseFetch{category: category, transform: transform}
}

type tupleFetch struct {
	items []Fetch
}

func (f tupleFetch) Access(g *Graph, root arena.Handle) Access {
	accesses := make([]Access, len(f.items))
	for i, item := range f.items {
		accesses[i] = item.Access(g, root)
	}
	return &tupleAccess{items: accesses}
}

type tupleAccess struct {
	items []Access
	done  bool
}

// Next advances every component by exactly one step and pairs the results
// positionally. The first pull where any component comes up empty exhausts
// the tuple permanently; values the other components produced on that pull
// are released, not yielded.
func (a *tupleAccess) Next() (any, bool) {
	if a.done {
		return nil, false
	}
	if len(a.items) == 0 {
		a.done = true
		return nil, false
	}
	row := make(Row, len(a.items))
	complete := true
	for i, item := range a.items {
		v, ok := item.Next()
		if !ok {
			complete = false
			continue
		}
		row[i] = v
	}
	if !complete {
		closeValue(row)
		a.Close()
		return nil, false
	}
	return row, true
}

// Close exhausts the tuple and releases every component's buffered guards.
func (a *tupleAccess) Close() {
	a.done = true
	for _, item := range a.items {
		item.Close()
	}
}

// Tuple zips several fetches positionally. Each component builds its access
// independently from the same root; each pull advances all of them one step
// and succeeds only while all still produce a value. This is a positional
// zip across independently advancing iterators, not a cartesian join:
// zipping two [Related] fetches over unrelated categories pairs their nth
// results by position, which is only meaningful when the enumerations are
// correlated (such as component fetches sharing one driving relation).
// A tuple with no components is exhausted from the start.
func Tuple(items ...Fetch) Fetch {
	return tupleFetch{items: items}
}
