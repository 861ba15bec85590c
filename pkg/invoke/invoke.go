// Package invoke executes interceptor chains at run time. The chain
// order comes from deployment processing; each interceptor receives an
// invocation context and decides whether to proceed to the next one.
package invoke

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/loomproc/loom/pkg/errors"
)

// Terminal is the intercepted operation itself, called when the last
// interceptor proceeds.
type Terminal func(ctx context.Context, params []any) (any, error)

// Context carries the state of one intercepted invocation through the
// chain. It is not safe for concurrent use; a chain executes on a
// single goroutine.
type Context struct {
	ctx      context.Context
	method   string
	params   []any
	data     map[string]any
	chain    []Interceptor
	pos      int
	terminal Terminal
}

// Ctx returns the Go context of the invocation.
func (c *Context) Ctx() context.Context { return c.ctx }

// Method returns the name of the intercepted operation.
func (c *Context) Method() string { return c.method }

// Parameters returns the current invocation parameters.
func (c *Context) Parameters() []any { return c.params }

// SetParameters replaces the invocation parameters for the rest of the
// chain and the terminal operation.
func (c *Context) SetParameters(params []any) { c.params = params }

// Data returns the mutable per-invocation key-value store shared by all
// interceptors in the chain.
func (c *Context) Data() map[string]any { return c.data }

// Proceed invokes the next interceptor in the chain, or the terminal
// operation after the last one. An interceptor that does not call
// Proceed suppresses the invocation.
func (c *Context) Proceed() (any, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "invocation aborted")
	}
	if c.pos < len(c.chain) {
		next := c.chain[c.pos]
		c.pos++
		return next.Invoke(c)
	}
	return c.terminal(c.ctx, c.params)
}

// Interceptor wraps an intercepted invocation. Implementations call
// ic.Proceed to continue the chain.
type Interceptor interface {
	// Invoke processes the invocation and usually proceeds to the next
	// interceptor in the chain.
	Invoke(ic *Context) (any, error)

	// Name returns the interceptor name for logging and debugging.
	Name() string
}

// InterceptorFunc is a function adapter for Interceptor.
type InterceptorFunc struct {
	name string
	fn   func(ic *Context) (any, error)
}

// NewInterceptorFunc creates a function-based interceptor.
func NewInterceptorFunc(name string, fn func(ic *Context) (any, error)) *InterceptorFunc {
	return &InterceptorFunc{name: name, fn: fn}
}

// Invoke implements Interceptor.
func (i *InterceptorFunc) Invoke(ic *Context) (any, error) {
	return i.fn(ic)
}

// Name implements Interceptor.
func (i *InterceptorFunc) Name() string {
	return i.name
}

// Chain executes interceptors in their published order: the first added
// interceptor is outermost.
type Chain struct {
	interceptors []Interceptor
	logger       *log.Logger
}

// NewChain creates an empty chain. A nil logger falls back to the
// default logger.
func NewChain(logger *log.Logger) *Chain {
	if logger == nil {
		logger = log.Default()
	}
	return &Chain{logger: logger}
}

// Add appends an interceptor to the chain.
func (c *Chain) Add(i Interceptor) *Chain {
	c.interceptors = append(c.interceptors, i)
	return c
}

// Len returns the number of interceptors in the chain.
func (c *Chain) Len() int { return len(c.interceptors) }

// Execute runs the chain around the terminal operation.
func (c *Chain) Execute(ctx context.Context, method string, params []any, terminal Terminal) (any, error) {
	ic := &Context{
		ctx:      ctx,
		method:   method,
		params:   params,
		data:     make(map[string]any),
		chain:    c.interceptors,
		terminal: terminal,
	}
	return ic.Proceed()
}
