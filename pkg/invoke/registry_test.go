package invoke

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomproc/loom/pkg/annotations"
	"github.com/loomproc/loom/pkg/errors"
	"github.com/loomproc/loom/pkg/index"
	"github.com/loomproc/loom/pkg/processor"
)

func fixtureDeployment(t *testing.T) *processor.Deployment {
	t.Helper()

	aroundInvoke := func(declaring index.DotName) *index.MethodInfo {
		return &index.MethodInfo{
			Name:           "intercept",
			DeclaringClass: declaring,
			Parameters:     []index.Type{index.ClassType(index.InvocationContextName)},
			ReturnType:     index.ClassType(index.ObjectName),
			Annotations:    []index.AnnotationInstance{{Name: index.AroundInvokeName}},
		}
	}
	priority := func(v int) index.AnnotationInstance {
		return index.AnnotationInstance{Name: index.PriorityName, Values: map[string]any{"value": v}}
	}

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
			Name:      "org.acme.AuditInterceptor",
			SuperName: index.ObjectName,
			Annotations: []index.AnnotationInstance{
				{Name: index.InterceptorName},
				{Name: "org.acme.Logged"},
				priority(200),
			},
			Methods: []*index.MethodInfo{aroundInvoke("org.acme.AuditInterceptor")},
		},
		{
			Name:      "org.acme.TimingInterceptor",
			SuperName: index.ObjectName,
			Annotations: []index.AnnotationInstance{
				{Name: index.InterceptorName},
				{Name: "org.acme.Logged"},
				priority(100),
			},
			Methods: []*index.MethodInfo{aroundInvoke("org.acme.TimingInterceptor")},
		},
	}

	store := annotations.NewStore(index.Build(classes))
	d := processor.NewDeployment(store, log.New(io.Discard))
	require.NoError(t, d.Init())
	return d
}

func TestChainForOrdersByPriority(t *testing.T) {
	d := fixtureDeployment(t)

	var order []string
	reg := NewRegistry().
		Register("org.acme.AuditInterceptor", recordingInterceptor("audit", &order)).
		Register("org.acme.TimingInterceptor", recordingInterceptor("timing", &order))

	chain, err := reg.ChainFor(d, processor.AroundInvoke,
		[]index.AnnotationInstance{{Name: "org.acme.Logged"}}, log.New(io.Discard))
	require.NoError(t, err)
	require.Equal(t, 2, chain.Len())

	_, err = chain.Execute(context.Background(), "charge", nil,
		func(ctx context.Context, params []any) (any, error) {
			order = append(order, "terminal")
			return nil, nil
		})
	require.NoError(t, err)

	// Lower priority runs outermost.
	assert.Equal(t, []string{
		"timing:before", "audit:before", "terminal", "audit:after", "timing:after",
	}, order)
}

func TestChainForMissingImplementation(t *testing.T) {
	d := fixtureDeployment(t)

	reg := NewRegistry().
		Register("org.acme.TimingInterceptor", NewTimingInterceptor())

	_, err := reg.ChainFor(d, processor.AroundInvoke,
		[]index.AnnotationInstance{{Name: "org.acme.Logged"}}, log.New(io.Discard))
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetCode(err))
}

func TestChainForUnmatchedBindings(t *testing.T) {
	d := fixtureDeployment(t)

	chain, err := NewRegistry().ChainFor(d, processor.AroundInvoke, nil, log.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 0, chain.Len())
}
