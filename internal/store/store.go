// Package store persists the workspace document.
//
// The storage model mirrors the original single-key local-storage design:
// the entire workspace collection is one JSON document saved under a fixed
// key. Implementations only move bytes; (de)serialization and corruption
// fallback live in the core service.
package store

import (
	"context"
	"errors"
	"time"
)

// StateKey is the fixed key the workspace document is saved under.
const StateKey = "gridnote:workspace:v1"

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("workspace state not found")

// Store loads and saves the serialized workspace document.
type Store interface {
	// Load returns the document saved under StateKey, or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)

	// Save writes the document under StateKey, replacing any previous value.
	Save(ctx context.Context, doc []byte) error

	// SavedAt returns when the document was last written, or the zero time
	// with ErrNotFound if it never was.
	SavedAt(ctx context.Context) (time.Time, error)
}
