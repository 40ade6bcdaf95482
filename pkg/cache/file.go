package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache implements a file-based cache for CLI usage.
// Each entry is a raw blob file plus a small JSON metadata sidecar
// (expiration, size). Container blobs are binary and can be large, so
// they are stored as-is rather than wrapped in an encoded envelope.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// entryMeta describes a cached blob.
type entryMeta struct {
	ExpiresAt time.Time `json:"expires_at"`
	Size      int64     `json:"size"`
}

// Get retrieves a value from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	blobPath, metaPath := c.paths(key)

	metaData, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var meta entryMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		// Invalid cache entry - treat as miss
		c.evict(blobPath, metaPath)
		return nil, false, nil
	}

	// Check expiration
	if !meta.ExpiresAt.IsZero() && time.Now().After(meta.ExpiresAt) {
		c.evict(blobPath, metaPath)
		return nil, false, nil
	}

	data, err := os.ReadFile(blobPath)
	if os.IsNotExist(err) {
		// Sidecar without blob - treat as miss
		c.evict(blobPath, metaPath)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if meta.Size != int64(len(data)) {
		// Truncated blob - treat as miss
		c.evict(blobPath, metaPath)
		return nil, false, nil
	}

	return data, true, nil
}

// Set stores a value in the cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	meta := entryMeta{
		Size: int64(len(data)),
	}
	if ttl > 0 {
		meta.ExpiresAt = time.Now().Add(ttl)
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	blobPath, metaPath := c.paths(key)
	if err := os.MkdirAll(filepath.Dir(blobPath), 0755); err != nil {
		return err
	}

	// Blob first so a sidecar never points at a missing blob.
	if err := os.WriteFile(blobPath, data, 0644); err != nil {
		return err
	}
	return os.WriteFile(metaPath, metaData, 0644)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	blobPath, metaPath := c.paths(key)
	err := os.Remove(metaPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	err = os.Remove(blobPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// evict removes both files of a broken or expired entry.
func (c *FileCache) evict(blobPath, metaPath string) {
	_ = os.Remove(metaPath)
	_ = os.Remove(blobPath)
}

// paths converts a cache key to its blob and metadata file paths.
// Uses a hash-based directory structure to avoid too many files in one dir.
func (c *FileCache) paths(key string) (blob, meta string) {
	hash := Hash([]byte(key))
	// Use first 2 chars as subdirectory for distribution
	subdir := hash[:2]
	base := filepath.Join(c.dir, subdir, hash[2:])
	return base + ".blob", base + ".json"
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
