// Package snapshot persists dehydrated documents between requests.
//
// A snapshot is the full HTML of a document after dehydration: markup,
// subscription tables and the state block. Resuming a document means
// loading its snapshot and parsing it; nothing else is kept server side.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Load when a snapshot does not exist or has
// expired.
var ErrNotFound = errors.New("snapshot: not found")

// ErrClosed is returned when a store is used after Close.
var ErrClosed = errors.New("snapshot: store closed")

// Store persists snapshots. Implementations must be safe for concurrent
// use.
type Store interface {
	// Save stores data under id, replacing any previous snapshot.
	Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error

	// Load returns the snapshot stored under id or ErrNotFound.
	Load(ctx context.Context, id string) ([]byte, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}

// NewID returns a fresh snapshot identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an identifier from NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
