package orm

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
)

// requestParams encodes the query into the dialect's parameters. Raw
// parameters set with Param lose to the encoded query on collision.
func (q *query) requestParams() (Params, error) {
	d := q.conn.dialect
	p := cloneParams(q.params)
	if q.where != nil {
		fp, err := d.Filter(q.where)
		if err != nil {
			return nil, err
		}
		maps.Copy(p, fp)
	}
	set := func(key string, values []string) {
		if key != "" && len(values) > 0 {
			p[key] = strings.Join(values, ",")
		}
	}
	set(d.SortParam(), q.orderBy)
	set(d.FieldsParam(), q.selects)
	set(d.ExpandParam(), q.joins)
	return p, nil
}

func (q *query) shortCircuit() {
	resource := q.model.alias()
	q.conn.logger.Debug().Str("resource", resource).Msg("query matches nothing, request skipped")
	if m := q.conn.metrics; m != nil {
		m.observeEmpty(resource)
	}
}

// fetch resolves the query and returns the raw rows of one GET request.
func (q *query) fetch(ctx context.Context) ([]Row, *query, error) {
	resolved, err := q.resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	if resolved.state == stateGuaranteedEmpty {
		resolved.shortCircuit()
		return nil, resolved, nil
	}

	params, err := resolved.requestParams()
	if err != nil {
		return nil, nil, err
	}
	data, err := q.conn.Request(ctx, http.MethodGet, resolved.model.Resource, params, nil, false)
	if err != nil {
		return nil, nil, err
	}
	rows, err := toRows(data)
	if err != nil {
		return nil, nil, fmt.Errorf("orm: %s: %w", resolved.model.alias(), err)
	}
	return rows, resolved, nil
}

func (q *query) all(ctx context.Context) ([]Entity, error) {
	rows, resolved, err := q.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return resolved.populate(ctx, rows)
}

// one returns nil when nothing matched, including a 404 from the server.
func (q *query) one(ctx context.Context) (Entity, error) {
	rows, resolved, err := q.fetch(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	records, err := resolved.populate(ctx, rows)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (q *query) count(ctx context.Context) (int64, error) {
	resolved, err := q.resolve(ctx)
	if err != nil {
		return 0, err
	}
	if resolved.state == stateGuaranteedEmpty {
		resolved.shortCircuit()
		return 0, nil
	}
	params, err := resolved.requestParams()
	if err != nil {
		return 0, err
	}
	header := q.conn.dialect.CountHeader()
	h, err := q.conn.head(ctx, resolved.model.Resource, params)
	if err != nil {
		return 0, err
	}
	n, ok := totalCount(h, header)
	if !ok {
		return 0, fmt.Errorf("orm: %s: response has no valid %s header", resolved.model.alias(), header)
	}
	return n, nil
}

// toRows accepts a list of objects or a single object.
func toRows(data any) ([]Row, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []Row{Row(v)}, nil
	case []any:
		rows := make([]Row, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("row %d is %T, not an object", i, item)
			}
			rows = append(rows, Row(m))
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("unexpected response of type %T", data)
	}
}

// Create POSTs body to m's collection and returns the created record.
func (c *Connection) Create(ctx context.Context, m *Model, body Params) (Entity, error) {
	data, err := c.Request(ctx, http.MethodPost, m.Resource, nil, body, false)
	if err != nil {
		return nil, err
	}
	return c.written(m, data, Row(body))
}

// Update PATCHes body to the member URL of e and returns the record the
// server sent back, or e when the response has no body.
func (c *Connection) Update(ctx context.Context, m *Model, e Entity, body Params) (Entity, error) {
	template, query, err := memberPath(m, e)
	if err != nil {
		return nil, err
	}
	data, err := c.Request(ctx, http.MethodPatch, template, query, body, false)
	if err != nil {
		return nil, notFound(err)
	}
	if data == nil {
		return e, nil
	}
	return c.written(m, data, nil)
}

// Delete DELETEs the member URL of e. A missing record yields ErrNotFound.
func (c *Connection) Delete(ctx context.Context, m *Model, e Entity) error {
	template, query, err := memberPath(m, e)
	if err != nil {
		return err
	}
	if _, err := c.Request(ctx, http.MethodDelete, template, query, nil, true); err != nil {
		return notFound(err)
	}
	return nil
}

// Head sends a HEAD request to m's collection and returns the headers.
func (c *Connection) Head(ctx context.Context, m *Model, params Params) (http.Header, error) {
	return c.head(ctx, m.Resource, params)
}

func (c *Connection) head(ctx context.Context, template string, query Params) (http.Header, error) {
	u, err := c.BuildURL(ctx, template, query, nil)
	if err != nil {
		return nil, err
	}
	return c.transport.Head(ctx, u)
}

func (c *Connection) written(m *Model, data any, fallback Row) (Entity, error) {
	if obj, ok := data.(map[string]any); ok {
		return m.newEntity(Row(obj), false)
	}
	if fallback == nil {
		return nil, fmt.Errorf("orm: %s: unexpected response of type %T", m.alias(), data)
	}
	return m.newEntity(fallback, false)
}

func notFound(err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// memberPath returns the member URL template of e and the values of the
// collection's own placeholders read from e. Composite keys are joined
// with commas.
func memberPath(m *Model, e Entity) (string, Params, error) {
	if len(m.PrimaryKey) == 0 {
		return "", nil, configError("%s has no primary key", m.alias())
	}
	ids := make([]string, len(m.PrimaryKey))
	for i, pk := range m.PrimaryKey {
		v, ok := e.Attribute(pk)
		s, scalar := formatScalar(v)
		if !ok || v == nil || !scalar {
			return "", nil, &URLResolutionError{Template: strings.TrimRight(m.Resource, "/") + "/{" + pk + "}", Placeholder: pk}
		}
		ids[i] = s
	}

	query := make(Params)
	for _, sub := range placeholderRe.FindAllStringSubmatch(m.Resource, -1) {
		if v, ok := e.Attribute(sub[1]); ok && v != nil {
			query[sub[1]] = v
		}
	}
	template := strings.TrimRight(m.Resource, "/") + "/" + url.PathEscape(strings.Join(ids, ","))
	return template, query, nil
}
