package ocrcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Entry is a cached best recognition result for one exact image.
type Entry struct {
	Text       string
	Confidence float64
	WordsCount int
}

// Store caches recognition results keyed by image content hash, so
// resubmitting the same photo skips the expensive ensemble sweep.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, e Entry) error
	Close() error
}

// Key derives the cache key for an image: sha256 hex of the raw bytes.
func Key(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}
