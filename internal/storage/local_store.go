package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes objects under a directory on disk. It stands in for the
// S3 store during development when no storage credentials are configured.
// Presigned URLs are plain file-serving URLs; expiry is not enforced.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("local storage dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080/objects"
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) Put(_ context.Context, key string, _ string, data []byte, _ map[string]string) (ObjectInfo, error) {
	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return ObjectInfo{}, fmt.Errorf("write object %s: %w", key, err)
	}
	sum := sha256.Sum256(data)
	return ObjectInfo{
		Key:  key,
		URL:  s.PublicURL(key),
		ETag: hex.EncodeToString(sum[:8]),
		Size: int64(len(data)),
	}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) PresignedUpload(_ context.Context, key string, _ string, _ time.Duration) (string, error) {
	return s.PublicURL(key), nil
}

func (s *LocalStore) PresignedDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return s.PublicURL(key), nil
}

func (s *LocalStore) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// Root exposes the backing directory so the server can mount it as a static
// file route in development.
func (s *LocalStore) Root() string { return s.dir }
