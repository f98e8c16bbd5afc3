// Package storage defines the string key/value store that backs wishlist and
// cart snapshots, with memory, Redis and PostgreSQL drivers.
package storage

import (
	"context"
	"time"
)

// Key prefixes for persisted snapshots. The version suffix changes whenever
// the snapshot encoding changes.
const (
	WishlistKeyPrefix = "lifestyle_wishlist_v1"
	CartKeyPrefix     = "lifestyle_cart_v2"
)

// Driver names accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Storage is a best-effort string key/value store.
type Storage interface {
	// Get returns the value stored under key, or an error wrapping
	// apperrors.ErrNotFound when nothing is stored.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// Purger is implemented by drivers that need expired entries removed
// explicitly rather than by the backend itself.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// WishlistKey returns the storage key of a session's wishlist snapshot.
func WishlistKey(sessionID string) string {
	return WishlistKeyPrefix + ":" + sessionID
}

// CartKey returns the storage key of a session's cart snapshot.
func CartKey(sessionID string) string {
	return CartKeyPrefix + ":" + sessionID
}
