package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share one
// cache directory without colliding.
//
// Example usage:
//
//	// Per-project keys under a shared cache root
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "game:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// BuildKey generates a prefixed key for a finished container build.
func (k *ScopedKeyer) BuildKey(graphHash string, opts BuildKeyOpts) string {
	return k.prefix + k.inner.BuildKey(graphHash, opts)
}

// RenderKey generates a prefixed key for a rendered dependency graph.
func (k *ScopedKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(graphHash, opts)
}
