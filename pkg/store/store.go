// Package store persists prefab snapshots.
//
// One Store interface with backends for different deployment shapes:
//   - memory: in-process storage for development and tests
//   - file: a directory of JSON documents for CLI usage
//   - redis: Redis-backed storage, optionally TTL-bounded
//   - mongo: MongoDB-backed storage using the prefab's BSON form
//
// Snapshots are addressed by their prefab ID. Backends are safe for
// concurrent use; all operations take a context.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/relata/relata/pkg/prefab"
)

// ErrNotFound is returned when no snapshot exists under the requested ID.
var ErrNotFound = errors.New("snapshot not found")

// Info summarizes one stored snapshot without decoding its payloads.
type Info struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Codec     string    `json:"codec" bson:"codec"`
	Entities  int       `json:"entities" bson:"entities"`
	Edges     int       `json:"edges" bson:"edges"`
}

// InfoOf builds the summary of a prefab document.
func InfoOf(p *prefab.Prefab) Info {
	return Info{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Codec:     p.Codec,
		Entities:  p.EntityCount(),
		Edges:     p.EdgeCount(),
	}
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Put stores a snapshot under its prefab ID, replacing any previous
	// version.
	Put(ctx context.Context, p *prefab.Prefab) error

	// Get retrieves a snapshot by ID. Returns ErrNotFound if it does not
	// exist.
	Get(ctx context.Context, id string) (*prefab.Prefab, error)

	// List returns summaries of all stored snapshots, newest first.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a snapshot. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error
}
