/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"context"
	"time"
)

// WindowStore keeps histories in a shared key/value storage with expiration.
// Implementations must be safe for concurrent use.
type WindowStore interface {
	// Get returns the history stored under key. A missing or expired key gives (nil, false, nil).
	Get(ctx context.Context, key string) (History, bool, error)

	// Set replaces the history under key. The key must expire no later than ttl from now.
	Set(ctx context.Context, key string, h History, ttl time.Duration) error
}

// UpdateFunc receives the current history of a key and returns the next one.
// When write is false the stored value and its expiration stay unchanged.
// It may be called more than once per Update and must not have side effects beyond its result.
type UpdateFunc func(h History) (next History, write bool)

// AtomicWindowStore is a WindowStore that can read, decide and write a key atomically.
// The engine prefers Update when the store provides it; with a plain WindowStore two concurrent
// requests of the same caller may both be admitted when only one slot is left.
type AtomicWindowStore interface {
	WindowStore
	Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error
}
