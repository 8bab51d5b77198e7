package arena

import (
	"fmt"
	"reflect"
)

// Tag identifies a Go type at runtime. Tags are comparable and usable as map
// keys, which is what lets a static type double as a relation category or a
// storage bucket key. The zero Tag identifies no type.
type Tag struct {
	rt reflect.Type
}

// TagFor returns the tag for type T.
func TagFor[T any]() Tag {
	return Tag{rt: reflect.TypeFor[T]()}
}

// TagOfType returns the tag for a reflected type. It is the dynamic
// counterpart of [TagFor], used when the type is only known at runtime.
func TagOfType(rt reflect.Type) Tag {
	return Tag{rt: rt}
}

// IsZero reports whether the tag identifies no type.
func (t Tag) IsZero() bool { return t.rt == nil }

// Name returns the type's unqualified name, or the type string for unnamed
// types such as slices and maps.
func (t Tag) Name() string {
	if t.rt == nil {
		return ""
	}
	if name := t.rt.Name(); name != "" {
		return name
	}
	return t.rt.String()
}

// Module returns the import path of the package that defines the type.
// Predeclared and unnamed types return an empty module.
func (t Tag) Module() string {
	if t.rt == nil {
		return ""
	}
	return t.rt.PkgPath()
}

// Type returns the reflected type the tag identifies, or nil for the zero tag.
func (t Tag) Type() reflect.Type { return t.rt }

// String returns a readable form of the tag for logs and errors.
func (t Tag) String() string {
	if t.rt == nil {
		return "<none>"
	}
	return t.rt.String()
}

// Handle is an opaque reference to a value stored in an [Arena]. A handle is
// produced only by insertion and stays the sole way to name the value. Two
// handles are equal iff their tag, slot, and generation all match.
//
// The zero Handle references nothing and is never issued by an arena.
type Handle struct {
	tag  Tag
	slot uint32
	gen  uint32
}

// HandleAt reconstructs a handle from its raw parts. It exists for
// persistence adapters that record handles across process boundaries; a
// reconstructed handle whose slot or generation no longer matches a live
// value behaves like any stale handle and fails with ErrNotFound.
func HandleAt(tag Tag, slot, gen uint32) Handle {
	return Handle{tag: tag, slot: slot, gen: gen}
}

// Tag returns the type tag of the value the handle was issued for.
func (h Handle) Tag() Tag { return h.tag }

// Slot returns the handle's slot index within its type bucket. Slot indices
// are only meaningful together with the tag, and may be reused after the
// value is removed (with a new generation).
func (h Handle) Slot() uint32 { return h.slot }

// Generation returns the slot generation the handle was issued under.
func (h Handle) Generation() uint32 { return h.gen }

// IsZero reports whether the handle is the zero handle.
func (h Handle) IsZero() bool { return h == Handle{} }

// String returns a readable form of the handle for logs and errors.
func (h Handle) String() string {
	return fmt.Sprintf("%s#%d@%d", h.tag, h.slot, h.gen)
}
