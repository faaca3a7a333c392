// Package kit holds the small transport-neutral plumbing shared by the
// HTTP and MCP surfaces: the endpoint shape, middleware chaining, and
// request-scoped context keys.
package kit

import "context"

// Endpoint is a transport-agnostic operation: decoded request in,
// response out. Both HTTP handlers and MCP tools wrap one.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first listed runs outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
