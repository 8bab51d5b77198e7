package arena

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotRegistered is returned by registry lookups for types that were never
// registered.
var ErrNotRegistered = errors.New("arena: type not registered")

// Type describes one registered type: its runtime tag plus the stable
// (name, module) pair that identifies it across process boundaries.
// Snapshots record names, not tags, so a registry on the restoring side can
// resolve them back to concrete Go types.
type Type struct {
	Tag    Tag
	Name   string
	Module string
}

// New allocates a zero value of the registered type and returns a pointer to
// it (a *T stored as any), suitable for [Arena.InsertRaw].
func (t Type) New() any {
	return reflect.New(t.Tag.rt).Interface()
}

type qualifiedName struct {
	name   string
	module string
}

// Registry resolves type tags to stable names and back. It is the lookup
// surface snapshots and restores run against; a type missing from the
// registry makes the corresponding snapshot or restore step fail.
type Registry struct {
	byTag  map[Tag]Type
	byName map[qualifiedName]Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTag:  make(map[Tag]Type),
		byName: make(map[qualifiedName]Type),
	}
}

// RegisterType adds type T under its reflected name and package path.
// Registering the same type twice is a no-op. Returns the registered entry.
func RegisterType[T any](r *Registry) Type {
	tag := TagFor[T]()
	if t, ok := r.byTag[tag]; ok {
		return t
	}
	t := Type{Tag: tag, Name: tag.Name(), Module: tag.Module()}
	r.byTag[tag] = t
	r.byName[qualifiedName{t.Name, t.Module}] = t
	return t
}

// Lookup resolves a tag to its registered entry.
func (r *Registry) Lookup(tag Tag) (Type, error) {
	t, ok := r.byTag[tag]
	if !ok {
		return Type{}, fmt.Errorf("%w: %s", ErrNotRegistered, tag)
	}
	return t, nil
}

// LookupName resolves a (name, module) pair to its registered entry.
func (r *Registry) LookupName(name, module string) (Type, error) {
	t, ok := r.byName[qualifiedName{name, module}]
	if !ok {
		return Type{}, fmt.Errorf("%w: %s (module %q)", ErrNotRegistered, name, module)
	}
	return t, nil
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.byTag) }
