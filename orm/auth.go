package orm

import (
	"context"
	"maps"
	"sync"
)

// Params is a mapping of query or form parameters. Values may be scalars,
// slices or nested Params / map[string]any, encoded with bracket notation.
type Params = map[string]any

// Auth supplies the parameters merged into every outgoing query string.
type Auth interface {
	resolve(ctx context.Context, c *Connection) (Params, error)
}

type staticAuth struct {
	params Params
}

// StaticAuth returns an Auth that always sends params.
func StaticAuth(params Params) Auth {
	return staticAuth{params: maps.Clone(params)}
}

func (a staticAuth) resolve(context.Context, *Connection) (Params, error) {
	return a.params, nil
}

// AuthSupplier produces auth parameters on first use.
type AuthSupplier func(ctx context.Context, c *Connection) (Params, error)

type deferredAuth struct {
	supplier AuthSupplier

	mu       sync.Mutex
	resolved bool
	params   Params
}

// DeferredAuth returns an Auth resolved lazily on the first request and
// cached for the lifetime of the value. A failed supplier is called again
// on the next request.
func DeferredAuth(supplier AuthSupplier) Auth {
	return &deferredAuth{supplier: supplier}
}

func (a *deferredAuth) resolve(ctx context.Context, c *Connection) (Params, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resolved {
		return a.params, nil
	}
	params, err := a.supplier(ctx, c)
	if err != nil {
		return nil, err
	}
	a.params, a.resolved = params, true
	return params, nil
}
