// Package cache provides pluggable byte caches for expensive pipeline
// stages: parsed index archives, processed deployments and rendered
// graphs. Backends cover local CLI usage (file), tests (memory, null)
// and shared deployments (redis).
package cache

import (
	"context"
	"time"
)

// Default TTLs per pipeline stage. Index archives change with the
// application build, so they expire fastest; rendered artifacts are
// keyed by content hash and can live longer.
const (
	TTLIndex      = 1 * time.Hour
	TTLDeployment = 6 * time.Hour
	TTLRender     = 24 * time.Hour
)

// Cache stores opaque byte values under string keys with optional
// expiry. Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A non-positive ttl stores without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// DeploymentKeyOpts carries the inputs that change a deployment result
// for the same index.
type DeploymentKeyOpts struct {
	// Transformers names the enabled annotation transformers, in
	// registration order.
	Transformers []string
}

// RenderKeyOpts carries the inputs that change a rendered artifact for
// the same deployment.
type RenderKeyOpts struct {
	Format string
	Engine string
}

// Keyer derives cache keys for the pipeline stages. Key derivation is
// separated from storage so scoped (multi-tenant) key schemes can wrap
// any backend.
type Keyer interface {
	// IndexKey keys a parsed index archive by the hash of its raw bytes.
	IndexKey(archiveHash string) string
	// DeploymentKey keys a processed deployment by index hash and
	// processing options.
	DeploymentKey(indexHash string, opts DeploymentKeyOpts) string
	// RenderKey keys a rendered artifact by deployment hash and render
	// options.
	RenderKey(deploymentHash string, opts RenderKeyOpts) string
}

// DefaultKeyer derives keys by hashing the option structs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// IndexKey implements Keyer.
func (k *DefaultKeyer) IndexKey(archiveHash string) string {
	return hashKey("index", archiveHash)
}

// DeploymentKey implements Keyer.
func (k *DefaultKeyer) DeploymentKey(indexHash string, opts DeploymentKeyOpts) string {
	return hashKey("deployment", indexHash, opts)
}

// RenderKey implements Keyer.
func (k *DefaultKeyer) RenderKey(deploymentHash string, opts RenderKeyOpts) string {
	return hashKey("render", deploymentHash, opts)
}
