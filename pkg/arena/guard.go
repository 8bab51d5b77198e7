package arena

// ReadGuard is a shared accessor for one stored value. Multiple read guards
// may be live for the same value at once; a write guard excludes them all.
// The guard must be released with Close, after which Value must not be used.
type ReadGuard[T any] struct {
	value *T
	slot  *slot
	done  bool
}

// Value returns the guarded value. The pointed-to value must be treated as
// read-only; use [Write] to mutate.
func (g *ReadGuard[T]) Value() *T { return g.value }

// Close releases the guard. Close is idempotent, tolerates a nil receiver,
// and always returns nil; the error return exists to satisfy io.Closer.
func (g *ReadGuard[T]) Close() error {
	if g == nil || g.done {
		return nil
	}
	g.done = true
	g.slot.access--
	return nil
}

// WriteGuard is an exclusive accessor for one stored value. While it is
// live, no other guard can be granted for the value. The guard must be
// released with Close, after which Value must not be used.
type WriteGuard[T any] struct {
	value *T
	slot  *slot
	done  bool
}

// Value returns the guarded value for reading or mutation.
func (g *WriteGuard[T]) Value() *T { return g.value }

// Close releases the guard. Close is idempotent, tolerates a nil receiver,
// and always returns nil; the error return exists to satisfy io.Closer.
func (g *WriteGuard[T]) Close() error {
	if g == nil || g.done {
		return nil
	}
	g.done = true
	g.slot.access = accessFree
	return nil
}
