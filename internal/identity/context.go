package identity

import (
	"context"
	"sync"
)

// unexported, collision-proof context key
type contextKeyType struct{}

var contextKey = contextKeyType{}

// Context is the request-scoped identity state shared by the pipeline stages
// and the downstream handler. One Context belongs to exactly one request.
type Context struct {
	mu        sync.Mutex
	principal *Principal
	method    Method
	outcome   Outcome
	released  bool
}

// Attach returns ctx carrying an identity Context. If ctx already carries
// one it is reused, so every stage of a request sees the same state.
func Attach(ctx context.Context) (context.Context, *Context) {
	if ic := FromContext(ctx); ic != nil {
		return ctx, ic
	}
	ic := &Context{}
	return context.WithValue(ctx, contextKey, ic), ic
}

// FromContext returns the identity Context of the request, or nil.
func FromContext(ctx context.Context) *Context {
	ic, _ := ctx.Value(contextKey).(*Context)
	return ic
}

// PrincipalFromContext extracts the authenticated principal from ctx.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	ic := FromContext(ctx)
	if ic == nil {
		return nil, false
	}
	return ic.Principal()
}

// Establish authenticates the request as p using method m.
func (c *Context) Establish(p *Principal, m Method) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.principal = p
	c.method = m
	c.outcome = Authenticated
}

// Principal returns the established principal, if any.
func (c *Context) Principal() (*Principal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.principal == nil {
		return nil, false
	}
	return c.principal, true
}

// Authenticated reports whether a valid principal is established.
func (c *Context) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal.Valid()
}

func (c *Context) Method() Method {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

func (c *Context) SetOutcome(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome = o
}

func (c *Context) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Release ends a per-request login. Transient principals (session token,
// API key) are dropped and the release hook, if any, runs with the released
// principal. The method bookkeeping is reset even when the hook panics.
// Only the first call has any effect; it reports whether a principal was
// released.
func (c *Context) Release(hook func(*Principal, Method)) (released bool) {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return false
	}
	c.released = true
	p, m := c.principal, c.method
	if m.Transient() {
		c.principal = nil
		c.outcome = Unauthenticated
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.method.Transient() {
			c.method = MethodNone
		}
		c.mu.Unlock()
	}()

	if !m.Transient() {
		return false
	}
	if hook != nil {
		hook(p, m)
	}
	return true
}
