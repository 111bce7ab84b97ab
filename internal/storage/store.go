package storage

import (
	"context"
	"time"
)

// ObjectInfo describes a stored object after a successful write.
type ObjectInfo struct {
	Key  string
	URL  string
	ETag string
	Size int64
}

// Store is the object-storage contract the upload path depends on. The S3
// implementation targets Cloudflare R2 (or any S3-compatible endpoint); a
// filesystem store substitutes in development when credentials are absent.
type Store interface {
	Put(ctx context.Context, key string, contentType string, data []byte, metadata map[string]string) (ObjectInfo, error)
	// Delete is idempotent. Callers treat failures as best-effort: a failed
	// delete orphans bytes but must not roll back the surrounding database
	// deletion.
	Delete(ctx context.Context, key string) error
	PresignedUpload(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)
	PresignedDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}
