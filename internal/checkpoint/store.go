// Package checkpoint persists conversation state between turns. The blob
// is opaque to every backend; the orchestrator owns the encoding.
package checkpoint

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no checkpoint exists for a thread.
var ErrNotFound = errors.New("checkpoint: not found")

// Store saves and restores per-thread state blobs.
type Store interface {
	Save(ctx context.Context, threadID string, state []byte) error
	Load(ctx context.Context, threadID string) ([]byte, error)
	Delete(ctx context.Context, threadID string) error
	List(ctx context.Context) ([]string, error)
}
