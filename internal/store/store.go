// Package store implements the log Store contract (§6.1) the playback
// engine consumes: opening a log, describing which topics/types it carries,
// and streaming a time-ordered batch of messages for a chosen topic set.
package store

import (
	"context"

	"github.com/darkden-lab/logplay/internal/catalog"
)

// Batch is a forward-only, non-restartable, time-ordered stream of
// messages. A Batch must be consumed at most once.
type Batch interface {
	// Next advances to the next message. It returns false once the batch is
	// exhausted or the underlying cursor has failed.
	Next() bool

	// Message returns the message most recently advanced to by Next. It is
	// only valid after a call to Next that returned true.
	Message() catalog.Message

	// Err returns the first error encountered during iteration, if any.
	Err() error

	// Close releases the batch's cursor. Safe to call multiple times.
	Close() error
}

// Store is the persisted log backend the playback engine reads from. Its
// table layout, insertion path, and batching strategy are implementation
// details; this interface is the entire surface the core depends on.
type Store interface {
	// Valid reports whether the Store opened successfully.
	Valid() bool

	// Descriptor returns the read-only topic -> type-set catalog.
	Descriptor(ctx context.Context) (catalog.Catalog, error)

	// QueryMessages returns a time-ordered Batch covering exactly the given
	// topic set, sorted non-decreasing by TimeReceived.
	QueryMessages(ctx context.Context, topics []string) (Batch, error)

	// ThreadsafeCapability reports whether the backend may service multiple
	// concurrent Sessions, or must serialize them to one at a time.
	ThreadsafeCapability() bool

	// Close releases the Store's resources.
	Close() error
}
