package arena

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
)

var (
	// ErrNotFound is returned when a handle does not reference a live value,
	// either because it was never issued, the value was removed, or the slot
	// was recycled under a newer generation.
	ErrNotFound = errors.New("arena: value not found")

	// ErrTypeMismatch is returned when a typed access requests a different
	// type than the one the handle was issued for.
	ErrTypeMismatch = errors.New("arena: type mismatch")

	// ErrAccessDenied is returned when a read or write guard cannot be
	// granted because a conflicting guard is outstanding, or when a value
	// with outstanding guards is removed.
	ErrAccessDenied = errors.New("arena: access denied")

	// ErrBadValue is returned by [Arena.InsertRaw] when the supplied value is
	// not a non-nil pointer to the tag's type.
	ErrBadValue = errors.New("arena: value does not match tag")
)

// Access states for a slot. Positive values count shared readers.
const (
	accessFree      = 0
	accessExclusive = -1
)

// slot holds one stored value together with its lifetime bookkeeping.
// The value is kept as a pointer to the concrete type (a *T stored as any),
// so typed guards and dynamic deserialization share one representation.
type slot struct {
	value  any
	gen    uint32
	live   bool
	access int
}

// bucket stores every value of a single type. Freed slots are recycled in
// LIFO order; recycling bumps the slot generation.
type bucket struct {
	slots []slot
	free  []uint32
	count int
}

func (b *bucket) insert(ptr any) (uint32, uint32) {
	var idx uint32
	if n := len(b.free); n > 0 {
		idx = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		b.slots = append(b.slots, slot{})
		idx = uint32(len(b.slots) - 1)
	}
	s := &b.slots[idx]
	s.value = ptr
	s.live = true
	s.access = accessFree
	b.count++
	return idx, s.gen
}

// get returns the slot for a handle if it is live under the handle's
// generation.
func (b *bucket) get(h Handle) *slot {
	if int(h.slot) >= len(b.slots) {
		return nil
	}
	s := &b.slots[h.slot]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return s
}

// Arena is a type-heterogeneous value store. The zero value is not usable;
// create arenas with [New].
type Arena struct {
	buckets map[Tag]*bucket
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{buckets: make(map[Tag]*bucket)}
}

// Insert stores a value and returns the handle that names it.
func Insert[T any](a *Arena, value T) Handle {
	ptr := new(T)
	*ptr = value
	h, err := a.InsertRaw(TagFor[T](), ptr)
	if err != nil {
		// Unreachable: the pointer always matches its own tag.
		panic(err)
	}
	return h
}

// InsertRaw stores a value through a pointer whose element type is only known
// at runtime. ptr must be a non-nil pointer to the tag's type; the arena
// takes ownership of the pointed-to value. This is the allocation path used
// when restoring snapshots, where types are resolved through a [Registry].
func (a *Arena) InsertRaw(tag Tag, ptr any) (Handle, error) {
	if tag.IsZero() || ptr == nil {
		return Handle{}, ErrBadValue
	}
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Type().Elem() != tag.rt {
		return Handle{}, fmt.Errorf("%w: %s", ErrBadValue, tag)
	}
	b := a.buckets[tag]
	if b == nil {
		b = &bucket{}
		a.buckets[tag] = b
	}
	idx, gen := b.insert(ptr)
	return Handle{tag: tag, slot: idx, gen: gen}, nil
}

// Remove frees the value a handle references. The slot is recycled under a
// new generation, so the handle (and any copy of it) becomes invalid.
// Returns ErrNotFound for a dead handle and ErrAccessDenied if a guard for
// the value is still outstanding.
func (a *Arena) Remove(h Handle) error {
	b := a.buckets[h.tag]
	if b == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	s := b.get(h)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	if s.access != accessFree {
		return fmt.Errorf("%w: %s has outstanding guards", ErrAccessDenied, h)
	}
	s.value = nil
	s.live = false
	s.gen++
	b.free = append(b.free, h.slot)
	b.count--
	return nil
}

// Contains reports whether the handle references a live value.
func (a *Arena) Contains(h Handle) bool {
	b := a.buckets[h.tag]
	return b != nil && b.get(h) != nil
}

// IsTag reports whether the handle references a live value of the tagged
// type. Unlike a failed [Read], this never touches access bookkeeping.
func (a *Arena) IsTag(h Handle, tag Tag) bool {
	return h.tag == tag && a.Contains(h)
}

// Is reports whether the handle references a live value of type T.
func Is[T any](a *Arena, h Handle) bool {
	return a.IsTag(h, TagFor[T]())
}

// Read grants shared access to the value as type T. Any number of read
// guards may be outstanding simultaneously, but not together with a write
// guard. The guard must be released with Close.
func Read[T any](a *Arena, h Handle) (*ReadGuard[T], error) {
	s, err := a.acquire(h, TagFor[T]())
	if err != nil {
		return nil, err
	}
	if s.access == accessExclusive {
		return nil, fmt.Errorf("%w: %s is write-locked", ErrAccessDenied, h)
	}
	s.access++
	return &ReadGuard[T]{value: s.value.(*T), slot: s}, nil
}

// Write grants exclusive access to the value as type T. No other guard may
// be outstanding for the same value. The guard must be released with Close.
func Write[T any](a *Arena, h Handle) (*WriteGuard[T], error) {
	s, err := a.acquire(h, TagFor[T]())
	if err != nil {
		return nil, err
	}
	if s.access != accessFree {
		return nil, fmt.Errorf("%w: %s has outstanding guards", ErrAccessDenied, h)
	}
	s.access = accessExclusive
	return &WriteGuard[T]{value: s.value.(*T), slot: s}, nil
}

func (a *Arena) acquire(h Handle, want Tag) (*slot, error) {
	if h.tag != want {
		return nil, fmt.Errorf("%w: %s stored as %s, requested %s", ErrTypeMismatch, h, h.tag, want)
	}
	b := a.buckets[h.tag]
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	s := b.get(h)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	return s, nil
}

// RawValue returns the stored value as a pointer to its concrete type
// (a *T stored as any). It bypasses guard bookkeeping and is intended for
// serialization paths that hold no guards; callers must not retain the
// pointer past the next mutation of the arena.
func (a *Arena) RawValue(h Handle) (any, error) {
	b := a.buckets[h.tag]
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	s := b.get(h)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, h)
	}
	return s.value, nil
}

// Len returns the number of live values across all types.
func (a *Arena) Len() int {
	total := 0
	for _, b := range a.buckets {
		total += b.count
	}
	return total
}

// Clear removes every value. All previously issued handles become invalid.
func (a *Arena) Clear() {
	a.buckets = make(map[Tag]*bucket)
}

// Tags returns the tags of all types that currently store at least one value.
func (a *Arena) Tags() []Tag {
	tags := make([]Tag, 0, len(a.buckets))
	for tag, b := range a.buckets {
		if b.count > 0 {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Handles enumerates every live handle, grouped by type bucket. The order
// within a bucket is slot order; the order of buckets is unspecified.
func (a *Arena) Handles() iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for tag, b := range a.buckets {
			for i := range b.slots {
				s := &b.slots[i]
				if !s.live {
					continue
				}
				if !yield(Handle{tag: tag, slot: uint32(i), gen: s.gen}) {
					return
				}
			}
		}
	}
}

// TagHandles enumerates the live handles of one type bucket in slot order.
func (a *Arena) TagHandles(tag Tag) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		b := a.buckets[tag]
		if b == nil {
			return
		}
		for i := range b.slots {
			s := &b.slots[i]
			if !s.live {
				continue
			}
			if !yield(Handle{tag: tag, slot: uint32(i), gen: s.gen}) {
				return
			}
		}
	}
}

// Iter visits every live value of type T under a shared guard. The guard is
// only valid inside the loop body; it is released when the body returns.
// Values whose access cannot be granted are skipped.
func Iter[T any](a *Arena) iter.Seq2[Handle, *ReadGuard[T]] {
	return func(yield func(Handle, *ReadGuard[T]) bool) {
		for h := range a.TagHandles(TagFor[T]()) {
			g, err := Read[T](a, h)
			if err != nil {
				continue
			}
			ok := yield(h, g)
			g.Close()
			if !ok {
				return
			}
		}
	}
}

// IterMut visits every live value of type T under an exclusive guard. The
// guard is only valid inside the loop body; it is released when the body
// returns. Values whose access cannot be granted are skipped.
func IterMut[T any](a *Arena) iter.Seq2[Handle, *WriteGuard[T]] {
	return func(yield func(Handle, *WriteGuard[T]) bool) {
		for h := range a.TagHandles(TagFor[T]()) {
			g, err := Write[T](a, h)
			if err != nil {
				continue
			}
			ok := yield(h, g)
			g.Close()
			if !ok {
				return
			}
		}
	}
}
