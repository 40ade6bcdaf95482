// Package cache provides result caching for container builds. A build is
// fully determined by the object graph and the build options, so cache keys
// are derived from a hash of both; the cached value is the finished
// container blob (or a rendered graph artifact).
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface for build artifacts.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// BuildKeyOpts captures the build options that affect the produced
// container. Two builds with the same graph hash and the same opts yield
// byte-identical containers.
type BuildKeyOpts struct {
	Profile  string
	Compress bool
	Version  uint32
}

// RenderKeyOpts captures the rendering options that affect a graph artifact.
type RenderKeyOpts struct {
	Format   string
	RankDir  string
	Detailed bool
}

// Keyer generates cache keys. Implementations must produce keys that are
// stable across processes and unique per logical input.
type Keyer interface {
	// BuildKey generates a key for a finished container build.
	BuildKey(graphHash string, opts BuildKeyOpts) string

	// RenderKey generates a key for a rendered dependency graph.
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// BuildKey generates a key for a finished container build.
func (k *DefaultKeyer) BuildKey(graphHash string, opts BuildKeyOpts) string {
	return hashKey("build", graphHash, opts)
}

// RenderKey generates a key for a rendered dependency graph.
func (k *DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return hashKey("render", graphHash, opts)
}
