// Package store persists rendered blueprint snapshots.
package store

import (
	"context"
	"errors"

	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/topics"
)

var ErrNotFound = errors.New("snapshot not found")

// ListParams holds parameters for listing snapshots.
type ListParams struct {
	Language topics.Language // empty means every language
	Limit    int
}

// Store defines the snapshot storage interface.
type Store interface {
	// Save stores a snapshot, assigning an ID when it has none.
	Save(ctx context.Context, snap blueprint.Snapshot) (blueprint.Snapshot, error)

	// Get retrieves a snapshot by ID.
	Get(ctx context.Context, id string) (blueprint.Snapshot, error)

	// Latest returns the most recent snapshot for a language.
	Latest(ctx context.Context, lang topics.Language) (blueprint.Snapshot, error)

	// List returns snapshots newest first.
	List(ctx context.Context, p ListParams) ([]blueprint.Snapshot, error)

	Close() error
}
