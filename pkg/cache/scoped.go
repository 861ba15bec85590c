package cache

// ScopedKeyer wraps a Keyer with a prefix so separate applications or
// tenants sharing one backend get isolated namespaces.
//
// Example usage:
//
//	// Per-application keys when several services share one redis.
//	appKeyer := NewScopedKeyer(NewDefaultKeyer(), "app:orders:")
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

// IndexKey generates a prefixed key for index archive caching.
func (k *ScopedKeyer) IndexKey(archiveHash string) string {
	return k.prefix + k.inner.IndexKey(archiveHash)
}

// DeploymentKey generates a prefixed key for deployment caching.
func (k *ScopedKeyer) DeploymentKey(indexHash string, opts DeploymentKeyOpts) string {
	return k.prefix + k.inner.DeploymentKey(indexHash, opts)
}

// RenderKey generates a prefixed key for rendered artifact caching.
func (k *ScopedKeyer) RenderKey(deploymentHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(deploymentHash, opts)
}
