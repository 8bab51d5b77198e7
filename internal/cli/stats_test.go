package cli

import (
	"testing"

	"github.com/relata/relata/pkg/prefab"
)

func edge(fromSlot, toSlot uint32) prefab.Edge {
	dt := prefab.DataType{Name: "Node", Module: "cli_test"}
	return prefab.Edge{
		Source: prefab.EndpointRef{DataType: dt, ID: prefab.SlotID{Slot: fromSlot}},
		Target: prefab.EndpointRef{DataType: dt, ID: prefab.SlotID{Slot: toSlot}},
	}
}

func TestHasCycle(t *testing.T) {
	tests := []struct {
		name  string
		edges []prefab.Edge
		want  bool
	}{
		{name: "empty", edges: nil, want: false},
		{name: "chain", edges: []prefab.Edge{edge(0, 1), edge(1, 2)}, want: false},
		{name: "diamond", edges: []prefab.Edge{edge(0, 1), edge(0, 2), edge(1, 3), edge(2, 3)}, want: false},
		{name: "self loop", edges: []prefab.Edge{edge(0, 0)}, want: true},
		{name: "triangle", edges: []prefab.Edge{edge(0, 1), edge(1, 2), edge(2, 0)}, want: true},
		{name: "cycle off the main path", edges: []prefab.Edge{edge(0, 1), edge(2, 3), edge(3, 2)}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasCycle(tt.edges); got != tt.want {
				t.Errorf("hasCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}
