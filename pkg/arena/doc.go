// Package arena provides a type-erased, in-memory value store addressed by
// opaque generational handles.
//
// Values of arbitrary Go types live side by side in one Arena, bucketed by
// their runtime type. Each stored value is named by a [Handle] that records
// the value's type tag, its slot within the type bucket, and a generation
// counter. Slots are recycled after removal; recycling bumps the generation,
// so a stale handle kept past removal fails with [ErrNotFound] instead of
// silently aliasing an unrelated value.
//
// Access to stored values goes through guards. [Read] grants a shared
// accessor, [Write] an exclusive one; the arena tracks outstanding guards per
// slot and rejects conflicting access with [ErrAccessDenied]. Guards must be
// released with Close.
//
// The arena assumes a single logical owner. It performs no internal locking;
// callers that share an Arena across goroutines must serialize access
// themselves.
package arena
