package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/loomproc/loom/pkg/annotations"
	"github.com/loomproc/loom/pkg/cache"
	"github.com/loomproc/loom/pkg/errors"
	"github.com/loomproc/loom/pkg/graphout"
	"github.com/loomproc/loom/pkg/index"
	"github.com/loomproc/loom/pkg/observability"
	"github.com/loomproc/loom/pkg/processor"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store run results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// Stats collects per-stage timings and model sizes for one run.
type Stats struct {
	LoadTime    time.Duration
	ProcessTime time.Duration
	RenderTime  time.Duration

	ClassCount       int
	BeanCount        int
	InterceptorCount int
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	GraphHit  bool
	RenderHit bool
}

// Result is the outcome of one pipeline run.
type Result struct {
	// RunID identifies the run, for report storage and logging.
	RunID string

	// IndexHash is the content hash of the processed archive.
	IndexHash string

	Deployment *processor.Deployment
	Graph      *graphout.Graph

	// Artifacts maps output format to rendered bytes.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → process → graph → render pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.IndexPath)
	idx, indexHash, err := r.loadIndex(opts.IndexPath)
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, opts.IndexPath, 0, time.Since(loadStart), err)
		return nil, err
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.IndexPath, idx.ClassCount(), time.Since(loadStart), nil)
	result.IndexHash = indexHash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.ClassCount = idx.ClassCount()

	r.Logger.Info("loaded index",
		"classes", idx.ClassCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Process. The deployment model is always rebuilt; it is
	// cheap relative to IO and its validation errors must not be masked
	// by a stale cache entry.
	processStart := time.Now()
	observability.Pipeline().OnProcessStart(ctx, opts.IndexPath)
	deployment := processor.NewDeployment(annotations.NewStore(idx), r.Logger)
	if err := deployment.Init(); err != nil {
		observability.Pipeline().OnProcessComplete(ctx, opts.IndexPath, 0, 0, time.Since(processStart), err)
		return nil, err
	}
	observability.Pipeline().OnProcessComplete(ctx, opts.IndexPath,
		len(deployment.Beans()), len(deployment.Interceptors()), time.Since(processStart), nil)
	result.Deployment = deployment
	result.Stats.ProcessTime = time.Since(processStart)
	result.Stats.BeanCount = len(deployment.Beans())
	result.Stats.InterceptorCount = len(deployment.Interceptors())

	r.Logger.Info("processed deployment",
		"beans", result.Stats.BeanCount,
		"interceptors", result.Stats.InterceptorCount,
		"warnings", len(deployment.Warnings()),
		"duration", result.Stats.ProcessTime)

	// Stage 3: Graph
	g, graphHit, err := r.buildGraphWithCacheInfo(ctx, deployment, indexHash, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.CacheInfo.GraphHit = graphHit

	if err := g.CheckAcyclic(); err != nil {
		if opts.StrictCycles {
			return nil, errors.Wrap(errors.ErrCodeDeployment, err, "injection graph")
		}
		r.Logger.Warn("injection graph contains a cycle")
	}

	// Stage 4: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	renderHit, err := r.render(ctx, result, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// loadIndex reads and decodes the archive, returning the index and the
// content hash of the raw bytes.
func (r *Runner) loadIndex(path string) (*index.Index, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.New(errors.ErrCodeFileNotFound, "index archive not found: %s", path)
		}
		return nil, "", errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}

	idx, err := index.UnmarshalIndex(data)
	if err != nil {
		return nil, "", err
	}
	return idx, cache.Hash(data), nil
}

// buildGraphWithCacheInfo derives the bean graph, serving the node-link
// document from cache when possible.
func (r *Runner) buildGraphWithCacheInfo(ctx context.Context, d *processor.Deployment, indexHash string, opts Options) (*graphout.Graph, bool, error) {
	cacheKey := r.Keyer.DeploymentKey(indexHash, cache.DeploymentKeyOpts{})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := graphout.Read(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "deployment")
				return g, true, nil
			}
			// Undecodable entries fall through to a rebuild.
		}
	}
	observability.Cache().OnCacheMiss(ctx, "deployment")

	g, err := graphout.FromDeployment(d)
	if err != nil {
		return nil, false, err
	}

	if data, err := graphout.Marshal(g); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLDeployment)
		observability.Cache().OnCacheSet(ctx, "deployment", len(data))
	}
	return g, false, nil
}

// render produces the requested artifacts. SVG output is cached by
// graph hash; JSON and DOT are cheap enough to rebuild every run.
func (r *Runner) render(ctx context.Context, result *Result, opts Options) (bool, error) {
	graphData, err := graphout.Marshal(result.Graph)
	if err != nil {
		return false, err
	}
	graphHash := cache.Hash(graphData)

	var dot string
	renderHit := false
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			result.Artifacts[FormatJSON] = graphData

		case FormatDOT:
			if dot == "" {
				dot = graphout.ToDOT(result.Graph, graphout.DotOptions{Detailed: opts.Detailed})
			}
			result.Artifacts[FormatDOT] = []byte(dot)

		case FormatSVG:
			cacheKey := r.Keyer.RenderKey(graphHash, cache.RenderKeyOpts{
				Format: FormatSVG,
				Engine: "graphviz",
			})
			if !opts.Refresh {
				if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
					observability.Cache().OnCacheHit(ctx, "render")
					result.Artifacts[FormatSVG] = data
					renderHit = true
					continue
				}
			}
			observability.Cache().OnCacheMiss(ctx, "render")
			if dot == "" {
				dot = graphout.ToDOT(result.Graph, graphout.DotOptions{Detailed: opts.Detailed})
			}
			svg, err := graphout.RenderSVG(ctx, dot)
			if err != nil {
				return false, err
			}
			result.Artifacts[FormatSVG] = svg
			_ = r.Cache.Set(ctx, cacheKey, svg, cache.TTLRender)
			observability.Cache().OnCacheSet(ctx, "render", len(svg))
		}
	}
	return renderHit, nil
}
