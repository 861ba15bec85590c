package invoke

import (
	"github.com/charmbracelet/log"

	"github.com/loomproc/loom/pkg/errors"
	"github.com/loomproc/loom/pkg/index"
	"github.com/loomproc/loom/pkg/processor"
)

// Registry maps interceptor classes from the deployment model to their
// runtime implementations. Registration happens at startup; lookups at
// invocation time are read-only.
type Registry struct {
	impls map[index.DotName]Interceptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{impls: make(map[index.DotName]Interceptor)}
}

// Register binds an implementation to an interceptor class name.
// Registering the same class twice replaces the previous binding.
func (r *Registry) Register(class index.DotName, impl Interceptor) *Registry {
	r.impls[class] = impl
	return r
}

// ChainFor builds the runtime chain for a callback kind and binding
// set: the deployment resolves and orders the interceptors, and the
// registry supplies their implementations. A resolved interceptor
// without a registered implementation is an error, since silently
// skipping it would change the application's semantics.
func (r *Registry) ChainFor(d *processor.Deployment, kind processor.CallbackKind,
	bindings []index.AnnotationInstance, logger *log.Logger) (*Chain, error) {

	chain := NewChain(logger)
	for _, info := range d.ResolveInterceptors(kind, bindings) {
		impl, ok := r.impls[info.TargetClass()]
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound,
				"no implementation registered for interceptor: %s", info.TargetClass())
		}
		chain.Add(impl)
	}
	return chain, nil
}
