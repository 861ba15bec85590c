package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomproc/loom/pkg/cache"
	"github.com/loomproc/loom/pkg/errors"
	"github.com/loomproc/loom/pkg/index"
)

func writeFixtureArchive(t *testing.T) string {
	t.Helper()

	classes := []*index.ClassInfo{
		{
			Name:      "org.acme.Logged",
			SuperName: index.ObjectName,
			Flags:     index.FlagAnnotation | index.FlagInterface | index.FlagAbstract,
			Annotations: []index.AnnotationInstance{
				{Name: index.InterceptorBindingName},
			},
		},
		{
			Name:      "org.acme.LoggedInterceptor",
			SuperName: index.ObjectName,
			Annotations: []index.AnnotationInstance{
				{Name: index.InterceptorName},
				{Name: "org.acme.Logged"},
			},
			Methods: []*index.MethodInfo{{
				Name:           "intercept",
				DeclaringClass: "org.acme.LoggedInterceptor",
				Parameters:     []index.Type{index.ClassType(index.InvocationContextName)},
				ReturnType:     index.ClassType(index.ObjectName),
				Annotations:    []index.AnnotationInstance{{Name: index.AroundInvokeName}},
			}},
		},
		{
			Name:      "org.acme.OrderService",
			SuperName: index.ObjectName,
			Annotations: []index.AnnotationInstance{
				{Name: index.ApplicationScopedName},
				{Name: "org.acme.Logged"},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "app.idx.json")
	require.NoError(t, index.WriteIndexFile(index.Build(classes), path))
	return path
}

func newTestRunner() *Runner {
	return NewRunner(cache.NewMemoryCache(), nil, log.New(io.Discard))
}

func TestOptionsValidation(t *testing.T) {
	var opts Options
	err := opts.ValidateAndSetDefaults()
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))

	opts = Options{IndexPath: "app.idx.json", Formats: []string{"gif"}}
	err = opts.ValidateAndSetDefaults()
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))

	opts = Options{IndexPath: "app.idx.json"}
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, []string{FormatJSON}, opts.Formats)
}

func TestExecute(t *testing.T) {
	path := writeFixtureArchive(t)
	r := newTestRunner()

	result, err := r.Execute(context.Background(), Options{
		IndexPath: path,
		Formats:   []string{FormatJSON, FormatDOT},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.IndexHash)
	assert.Equal(t, 3, result.Stats.ClassCount)
	assert.Equal(t, 2, result.Stats.BeanCount)
	assert.Equal(t, 1, result.Stats.InterceptorCount)
	assert.Contains(t, result.Artifacts, FormatJSON)
	assert.Contains(t, result.Artifacts, FormatDOT)
	assert.False(t, result.CacheInfo.GraphHit)
}

func TestExecuteGraphCacheHit(t *testing.T) {
	path := writeFixtureArchive(t)
	r := newTestRunner()
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{IndexPath: path})
	require.NoError(t, err)
	require.False(t, first.CacheInfo.GraphHit)

	second, err := r.Execute(ctx, Options{IndexPath: path})
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.GraphHit)
	assert.Equal(t, first.Graph.NodeCount(), second.Graph.NodeCount())

	// Refresh bypasses the cache.
	third, err := r.Execute(ctx, Options{IndexPath: path, Refresh: true})
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.GraphHit)
}

func TestExecuteMissingIndex(t *testing.T) {
	r := newTestRunner()
	_, err := r.Execute(context.Background(), Options{IndexPath: "does-not-exist.idx.json"})
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))
}

func TestExecuteInvalidDeployment(t *testing.T) {
	// An interceptor without bindings fails deployment processing.
	classes := []*index.ClassInfo{{
		Name:      "org.acme.UnboundInterceptor",
		SuperName: index.ObjectName,
		Annotations: []index.AnnotationInstance{
			{Name: index.InterceptorName},
		},
	}}
	path := filepath.Join(t.TempDir(), "bad.idx.json")
	require.NoError(t, index.WriteIndexFile(index.Build(classes), path))

	r := newTestRunner()
	_, err := r.Execute(context.Background(), Options{IndexPath: path})
	assert.Equal(t, errors.ErrCodeDefinition, errors.GetCode(err))
}
