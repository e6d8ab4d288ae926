// Package snapshot persists named pipeline states.
//
// A snapshot is a full editor state plus naming and timestamps. The Store
// interface has four backends:
//   - memory: in-process storage for tests and throwaway sessions
//   - file: JSON files in a config directory for CLI use
//   - redis: shared storage for multi-instance deployments
//   - mongo: durable storage with server-side listing
//
// All backends treat Put as an upsert keyed by snapshot ID.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

// ErrNotFound is returned by Get and Delete for unknown snapshot IDs.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a saved pipeline state.
type Snapshot struct {
	ID        string      `json:"id" bson:"_id"`
	Name      string      `json:"name" bson:"name"`
	State     graph.State `json:"state" bson:"state"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

// New creates a snapshot of state with a generated ID and fresh timestamps.
func New(name string, state graph.State) *Snapshot {
	now := time.Now().UTC()
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps the update timestamp before a Put.
func (s *Snapshot) Touch() { s.UpdatedAt = time.Now().UTC() }

// Store is the interface for snapshot persistence backends.
type Store interface {
	// Get retrieves a snapshot by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Put stores a snapshot, replacing any existing one with the same ID.
	Put(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// List returns all snapshots ordered by most recently updated first.
	List(ctx context.Context) ([]Snapshot, error)
}
