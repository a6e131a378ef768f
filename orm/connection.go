package orm

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// Connection binds a base URI, auth parameters and a shared HTTP handler.
// It is safe for concurrent use once opened.
type Connection struct {
	cfg     Config
	dialect Dialect
	auth    Auth
	logger  zerolog.Logger
	metrics *Metrics

	handlerOnce sync.Once
	h           Handler

	transport *Transport
}

// Option configures a Connection.
type Option func(*Connection)

// WithHandler injects the HTTP handler. Without it an *http.Client with
// Config.Timeout is created on first use.
func WithHandler(h Handler) Option {
	return func(c *Connection) { c.h = h }
}

// WithLogger sets the request logger. The default discards everything
// unless Config.Debug is set.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Connection) { c.logger = l }
}

// WithAuth replaces the static Config.Auth parameters.
func WithAuth(a Auth) Option {
	return func(c *Connection) { c.auth = a }
}

// WithDialect selects the query-parameter conventions. Defaults to Yii.
func WithDialect(d Dialect) Option {
	return func(c *Connection) { c.dialect = d }
}

// WithMetrics records request metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Connection) { c.metrics = m }
}

// Open validates cfg and returns a Connection. A missing or malformed
// base URI fails with ErrConfiguration before any request is made.
func Open(cfg Config, opts ...Option) (*Connection, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Connection{
		cfg:     cfg,
		dialect: Yii,
		logger:  zerolog.Nop(),
	}
	if cfg.Debug {
		c.logger = NewConsoleLogger(zerolog.DebugLevel)
	}
	if len(cfg.Auth) > 0 {
		params := make(Params, len(cfg.Auth))
		for k, v := range cfg.Auth {
			params[k] = v
		}
		c.auth = StaticAuth(params)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport = &Transport{conn: c}
	return c, nil
}

// BaseURI returns the configured base URI.
func (c *Connection) BaseURI() string { return c.cfg.BaseURI }

// Dialect returns the query-parameter conventions in use.
func (c *Connection) Dialect() Dialect { return c.dialect }

// Transport returns the adapter executing requests for this connection.
func (c *Connection) Transport() *Transport { return c.transport }

// LastResponse returns the most recent HTTP response, or nil.
func (c *Connection) LastResponse() *Response { return c.transport.LastResponse() }

// Logger returns the connection's logger.
func (c *Connection) Logger() *zerolog.Logger { return &c.logger }

func (c *Connection) handler() Handler {
	c.handlerOnce.Do(func() {
		if c.h == nil {
			c.h = &http.Client{Timeout: c.cfg.Timeout}
		}
	})
	return c.h
}

func (c *Connection) authParams(ctx context.Context) (Params, error) {
	if c.auth == nil {
		return nil, nil
	}
	return c.auth.resolve(ctx, c)
}

// Request builds the URL for template and executes it. Mapping bodies are
// form-encoded.
func (c *Connection) Request(ctx context.Context, method, template string, query Params, body any, raw bool) (any, error) {
	u, err := c.BuildURL(ctx, template, query, body)
	if err != nil {
		return nil, err
	}
	return c.transport.Execute(ctx, RequestSpec{Method: method, URL: u, Body: body}, raw)
}
