package sessionstore

import (
	"context"
	"time"
)

// Store holds the single live refresh token per user. PutRefresh overwrites
// any previous entry for the user, which is what enforces the one-live-token
// invariant. Entries expire on their own after the TTL.
type Store interface {
	PutRefresh(ctx context.Context, userID, token string, ttl time.Duration) error
	// GetRefresh returns "" with a nil error when no entry exists.
	GetRefresh(ctx context.Context, userID string) (string, error)
	// CompareAndDelete atomically removes the entry if it still equals token.
	// Returns false when the entry is absent or was already rotated.
	CompareAndDelete(ctx context.Context, userID, token string) (bool, error)
	DeleteRefresh(ctx context.Context, userID string) error
}
