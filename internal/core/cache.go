// Package core defines the ports between the jobdesk service layer and its adapters.
package core

import (
	"context"
	"time"
)

// CacheRepository is a byte-oriented key/value cache. Misses are not errors: Get returns
// (nil, nil) for an absent or expired key. Callers treat every error as a miss.
type CacheRepository interface {
	// Set stores value under key. A zero ttl stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)
}
