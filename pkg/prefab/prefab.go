// Package prefab converts a graph to and from an archetype-grouped snapshot
// document.
//
// A snapshot groups stored values by concrete type into node archetypes and
// groups relation edges by category into relation archetypes. Type identities
// are recorded as stable (name, module) pairs resolved through an
// [arena.Registry], and values are encoded with a pluggable [Codec]; the
// resulting Prefab carries JSON and BSON tags so stores can persist it as-is.
//
// Restoring a snapshot builds a fresh graph and returns the old-handle to
// new-handle mapping, since slot numbering is not preserved across a round
// trip.
package prefab

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/relata/relata/pkg/arena"
	"github.com/relata/relata/pkg/graph"
)

// Snapshot and restore fail on the first error; a partial prefab or a
// partial graph is never returned.
var (
	// ErrTypeUnresolvable marks a stored value type the registry cannot
	// resolve.
	ErrTypeUnresolvable = errors.New("prefab: value type not registered")
	// ErrCategoryUnresolvable marks a relation category the registry cannot
	// resolve.
	ErrCategoryUnresolvable = errors.New("prefab: relation category not registered")
	// ErrEncode marks a value the codec could not serialize.
	ErrEncode = errors.New("prefab: value encoding failed")
	// ErrDecode marks a payload the codec could not deserialize.
	ErrDecode = errors.New("prefab: value decoding failed")
	// ErrDanglingReference marks an edge endpoint with no matching entity in
	// the snapshot, indicating a corrupt or partial document.
	ErrDanglingReference = errors.New("prefab: edge references an entity missing from the snapshot")
	// ErrMalformed marks a document whose internal structure is inconsistent.
	ErrMalformed = errors.New("prefab: malformed snapshot document")
)

// =============================================================================
// Document types
// =============================================================================

// DataType names a Go type in registry terms, stable across processes.
type DataType struct {
	Name   string `json:"name" bson:"name"`
	Module string `json:"module,omitempty" bson:"module,omitempty"`
}

func (d DataType) String() string {
	if d.Module == "" {
		return d.Name
	}
	return d.Module + "." + d.Name
}

// SlotID is the per-bucket identity of one stored value at snapshot time.
type SlotID struct {
	Slot uint32 `json:"slot" bson:"slot"`
	Gen  uint32 `json:"gen" bson:"gen"`
}

// NodeArchetype holds every stored value of one type: the slot identities
// the source graph used and one encoded payload per slot, index-aligned.
type NodeArchetype struct {
	DataType DataType `json:"data_type" bson:"data_type"`
	Slots    []SlotID `json:"slots" bson:"slots"`
	Payloads [][]byte `json:"payloads" bson:"payloads"`
}

// EndpointRef names one edge endpoint by type and slot identity.
type EndpointRef struct {
	DataType DataType `json:"data_type" bson:"data_type"`
	ID       SlotID   `json:"id" bson:"id"`
}

// Edge is one directed relation edge in snapshot terms.
type Edge struct {
	Source EndpointRef `json:"source" bson:"source"`
	Target EndpointRef `json:"target" bson:"target"`
}

// RelationArchetype holds every edge of one relation category.
type RelationArchetype struct {
	DataType DataType `json:"data_type" bson:"data_type"`
	Edges    []Edge   `json:"edges" bson:"edges"`
}

// Prefab is the complete snapshot document of one graph.
type Prefab struct {
	ID        uuid.UUID           `json:"id" bson:"_id"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	Codec     string              `json:"codec" bson:"codec"`
	Nodes     []NodeArchetype     `json:"nodes" bson:"nodes"`
	Relations []RelationArchetype `json:"relations" bson:"relations"`
}

// EntityCount returns the number of stored values across all archetypes.
func (p *Prefab) EntityCount() int {
	n := 0
	for _, arch := range p.Nodes {
		n += len(arch.Slots)
	}
	return n
}

// EdgeCount returns the number of relation edges across all categories.
func (p *Prefab) EdgeCount() int {
	n := 0
	for _, arch := range p.Relations {
		n += len(arch.Edges)
	}
	return n
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot converts a graph into a prefab document. Stored value types and
// relation categories are resolved through the registry; each value is
// encoded with the codec. The first failure aborts the snapshot.
func Snapshot(g *graph.Graph, codec Codec, reg *arena.Registry) (*Prefab, error) {
	p := &Prefab{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Codec:     codec.Name(),
	}

	a := g.Arena()
	tags := a.Tags()
	slices.SortFunc(tags, func(x, y arena.Tag) int {
		return cmp.Compare(x.String(), y.String())
	})
	for _, tag := range tags {
		typ, err := reg.Lookup(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTypeUnresolvable, tag)
		}
		arch := NodeArchetype{DataType: DataType{Name: typ.Name, Module: typ.Module}}
		for h := range a.TagHandles(tag) {
			ptr, err := a.RawValue(h)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s: %w", h, err)
			}
			payload, err := codec.Encode(ptr)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrEncode, arch.DataType, err)
			}
			arch.Slots = append(arch.Slots, SlotID{Slot: h.Slot(), Gen: h.Generation()})
			arch.Payloads = append(arch.Payloads, payload)
		}
		p.Nodes = append(p.Nodes, arch)
	}

	for _, category := range g.Categories() {
		typ, err := reg.Lookup(category)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCategoryUnresolvable, category)
		}
		arch := RelationArchetype{DataType: DataType{Name: typ.Name, Module: typ.Module}}
		for _, edge := range g.Edges(category) {
			source, err := endpointRef(reg, edge[0])
			if err != nil {
				return nil, err
			}
			target, err := endpointRef(reg, edge[1])
			if err != nil {
				return nil, err
			}
			arch.Edges = append(arch.Edges, Edge{Source: source, Target: target})
		}
		p.Relations = append(p.Relations, arch)
	}
	return p, nil
}

func endpointRef(reg *arena.Registry, h arena.Handle) (EndpointRef, error) {
	typ, err := reg.Lookup(h.Tag())
	if err != nil {
		return EndpointRef{}, fmt.Errorf("%w: %s", ErrTypeUnresolvable, h.Tag())
	}
	return EndpointRef{
		DataType: DataType{Name: typ.Name, Module: typ.Module},
		ID:       SlotID{Slot: h.Slot(), Gen: h.Generation()},
	}, nil
}

// =============================================================================
// Restore
// =============================================================================

// Restore rebuilds a graph from a prefab document. It returns the new graph
// together with the mapping from the handles the snapshot recorded to the
// freshly issued ones, so callers can translate any externally held handles.
// The first failure aborts the restore.
func Restore(p *Prefab, codec Codec, reg *arena.Registry) (*graph.Graph, map[arena.Handle]arena.Handle, error) {
	g := graph.New()
	mapping := make(map[arena.Handle]arena.Handle, p.EntityCount())

	for _, arch := range p.Nodes {
		typ, err := reg.LookupName(arch.DataType.Name, arch.DataType.Module)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrTypeUnresolvable, arch.DataType)
		}
		if len(arch.Slots) != len(arch.Payloads) {
			return nil, nil, fmt.Errorf("%w: %s has %d slots but %d payloads",
				ErrMalformed, arch.DataType, len(arch.Slots), len(arch.Payloads))
		}
		for i, id := range arch.Slots {
			ptr := typ.New()
			if err := codec.Decode(arch.Payloads[i], ptr); err != nil {
				return nil, nil, fmt.Errorf("%w: %s: %v", ErrDecode, arch.DataType, err)
			}
			h, err := g.Arena().InsertRaw(typ.Tag, ptr)
			if err != nil {
				return nil, nil, fmt.Errorf("restore %s: %w", arch.DataType, err)
			}
			mapping[arena.HandleAt(typ.Tag, id.Slot, id.Gen)] = h
		}
	}

	for _, arch := range p.Relations {
		typ, err := reg.LookupName(arch.DataType.Name, arch.DataType.Module)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrCategoryUnresolvable, arch.DataType)
		}
		for _, edge := range arch.Edges {
			from, err := mapEndpoint(reg, mapping, edge.Source)
			if err != nil {
				return nil, nil, err
			}
			to, err := mapEndpoint(reg, mapping, edge.Target)
			if err != nil {
				return nil, nil, err
			}
			g.Relate(typ.Tag, from, to)
		}
	}
	return g, mapping, nil
}

func mapEndpoint(reg *arena.Registry, mapping map[arena.Handle]arena.Handle, ref EndpointRef) (arena.Handle, error) {
	typ, err := reg.LookupName(ref.DataType.Name, ref.DataType.Module)
	if err != nil {
		return arena.Handle{}, fmt.Errorf("%w: %s", ErrTypeUnresolvable, ref.DataType)
	}
	h, ok := mapping[arena.HandleAt(typ.Tag, ref.ID.Slot, ref.ID.Gen)]
	if !ok {
		return arena.Handle{}, fmt.Errorf("%w: %s#%d@%d",
			ErrDanglingReference, ref.DataType, ref.ID.Slot, ref.ID.Gen)
	}
	return h, nil
}
