// Package manager is the client-side contract of the clipboard history
// daemon. Manager lists every operation a client may perform against the
// remote store; Client implements it over a gRPC channel owned by the
// caller, and the history package provides an in-memory implementation.
//
// Each call is one request and one response. Implementations hold no state
// between calls, never retry and never cache: retry, backoff and deadlines
// belong to the caller, which cancels a pending call through its context.
package manager

import (
	"context"

	"go.klb.dev/clipmgr/internal/clip"
)

// Manager is the set of operations exposed by the clipboard history daemon.
type Manager interface {
	// Get returns the entry with id, or ErrEmpty when the daemon has none.
	Get(ctx context.Context, id uint64) (clip.Entry, error)

	// GetCurrentClip returns the entry currently held in mode's buffer, or
	// ErrEmpty when the buffer is empty.
	GetCurrentClip(ctx context.Context, mode clip.Mode) (clip.Entry, error)

	// Update replaces the payload of entry id. It reports whether the entry
	// kept its identity, and the id it is stored under afterwards.
	Update(ctx context.Context, id uint64, data []byte, mime string) (bool, uint64, error)

	// Mark makes entry id the current clip of mode and reports whether it did.
	Mark(ctx context.Context, id uint64, mode clip.Mode) (bool, error)

	// Insert stores data in mode's buffer and returns the assigned id.
	Insert(ctx context.Context, data []byte, mime string, mode clip.Mode) (uint64, error)

	// Length returns the number of entries in the history.
	Length(ctx context.Context) (int, error)

	// List returns the whole history in clip.Compare order.
	List(ctx context.Context) ([]clip.Entry, error)

	// Remove deletes entry id and reports whether it existed.
	Remove(ctx context.Context, id uint64) (bool, error)

	// BatchRemove deletes every entry in ids and returns, in request order,
	// the ids that existed.
	BatchRemove(ctx context.Context, ids []uint64) ([]uint64, error)

	// Clear deletes the whole history.
	Clear(ctx context.Context) error
}

// InsertClipboard inserts data into the system clipboard buffer.
func InsertClipboard(ctx context.Context, m Manager, data []byte, mime string) (uint64, error) {
	return m.Insert(ctx, data, mime, clip.ModeClipboard)
}

// InsertPrimary inserts data into the primary selection buffer.
func InsertPrimary(ctx context.Context, m Manager, data []byte, mime string) (uint64, error) {
	return m.Insert(ctx, data, mime, clip.ModeSelection)
}
