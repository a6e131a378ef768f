package orm

import (
	"context"
	"fmt"
	"slices"

	"github.com/mickamy/restorm/filter"
	"github.com/mickamy/restorm/scope"
)

type queryState int

const (
	stateNormal queryState = iota
	// stateGuaranteedEmpty queries are answered with no rows and never sent.
	stateGuaranteedEmpty
)

// query is the untyped retrieval intent shared by Query[T] and the
// relation resolver.
type query struct {
	conn  *Connection
	model *Model

	where   filter.Condition
	orderBy []string
	selects []string
	with    []string
	joins   []string
	params  Params
	indexBy string
	asArray bool
	state   queryState

	rel *relationContext
}

// relationContext binds a query to one relation. primary is nil when the
// relation is being loaded eagerly for a whole result set.
type relationContext struct {
	owner    *Model
	relation *Relation
	primary  Entity
}

func newQuery(conn *Connection, m *Model) *query {
	return &query{conn: conn, model: m}
}

// clone returns a shallow copy with slices copied to avoid aliasing.
func (q *query) clone() *query {
	q2 := *q
	q2.orderBy = slices.Clone(q.orderBy)
	q2.selects = slices.Clone(q.selects)
	q2.with = slices.Clone(q.with)
	q2.joins = slices.Clone(q.joins)
	q2.params = cloneParams(q.params)
	return &q2
}

func (q *query) andWhere(cond filter.Condition) {
	q.where = filter.And(q.where, cond)
}

func (q *query) setParam(key string, value any) {
	if q.params == nil {
		q.params = make(Params)
	}
	q.params[key] = value
}

// Query is a pending retrieval against one resource. All builder methods
// return a new Query; the receiver is never modified.
type Query[T any] struct {
	q *query
}

// From starts a query over model. T is the record type model.New returns,
// or Row when the model keeps raw rows.
//
//	users, err := orm.From[*User](conn, UserModel).With("posts").All(ctx)
func From[T any](conn *Connection, model *Model) *Query[T] {
	return &Query[T]{q: newQuery(conn, model)}
}

func (q *Query[T]) clone() *Query[T] {
	return &Query[T]{q: q.q.clone()}
}

// --- Builder methods ---

// Where replaces the filter condition.
func (q *Query[T]) Where(cond filter.Condition) *Query[T] {
	q2 := q.clone()
	q2.q.where = cond
	return q2
}

// AndWhere conjoins cond onto the filter condition.
func (q *Query[T]) AndWhere(cond filter.Condition) *Query[T] {
	q2 := q.clone()
	q2.q.andWhere(cond)
	return q2
}

// OrderBy appends sort keys. A leading "-" sorts descending.
func (q *Query[T]) OrderBy(keys ...string) *Query[T] {
	q2 := q.clone()
	q2.q.orderBy = append(q2.q.orderBy, keys...)
	return q2
}

// Select restricts the returned fields.
func (q *Query[T]) Select(fields ...string) *Query[T] {
	q2 := q.clone()
	q2.q.selects = append([]string(nil), fields...)
	return q2
}

// With eagerly loads the named relations after the main request. Dotted
// names load nested relations ("posts.comments").
func (q *Query[T]) With(relations ...string) *Query[T] {
	q2 := q.clone()
	q2.q.with = append(q2.q.with, relations...)
	return q2
}

// Join asks the server to expand the named relations inline. Records
// duplicated by the expansion are removed by primary key.
func (q *Query[T]) Join(relations ...string) *Query[T] {
	q2 := q.clone()
	q2.q.joins = append(q2.q.joins, relations...)
	return q2
}

// IndexBy keys Indexed results by attribute and disables de-duplication.
func (q *Query[T]) IndexBy(attribute string) *Query[T] {
	q2 := q.clone()
	q2.q.indexBy = attribute
	return q2
}

// AsArray keeps records as raw Rows and skips AfterFind hooks. It is
// meant for Query[Row]; see Rows for typed queries.
func (q *Query[T]) AsArray() *Query[T] {
	q2 := q.clone()
	q2.q.asArray = true
	return q2
}

// Param sets a raw query parameter, e.g. "per-page".
func (q *Query[T]) Param(key string, value any) *Query[T] {
	q2 := q.clone()
	q2.q.setParam(key, value)
	return q2
}

// None marks the query as matching nothing.
func (q *Query[T]) None() *Query[T] {
	q2 := q.clone()
	q2.q.state = stateGuaranteedEmpty
	return q2
}

// Scopes applies the given scope.Scope values to the query.
func (q *Query[T]) Scopes(scopes ...scope.Scope) *Query[T] {
	q2 := q.clone()
	for _, s := range scopes {
		s.Apply(q2)
	}
	return q2
}

// --- scope.Applier implementation ---

func (q *Query[T]) ApplyWhere(cond filter.Condition) { q.q.andWhere(cond) }

func (q *Query[T]) ApplyOrderBy(clause string) {
	q.q.orderBy = append(q.q.orderBy, clause)
}

func (q *Query[T]) ApplySelect(fields []string) { q.q.selects = fields }

func (q *Query[T]) ApplyWith(relations []string) {
	q.q.with = append(q.q.with, relations...)
}

func (q *Query[T]) ApplyParam(key string, value any) { q.q.setParam(key, value) }

func (q *Query[T]) ApplyNone() { q.q.state = stateGuaranteedEmpty }

var _ scope.Applier = (*Query[any])(nil)

// --- Terminal methods ---

// All executes the query and returns every record.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	records, err := q.q.all(ctx)
	if err != nil {
		return nil, err
	}
	return castAll[T](records)
}

// One executes the query and returns the first record. found is false when
// nothing matched; that is not an error.
func (q *Query[T]) One(ctx context.Context) (T, bool, error) {
	var zero T
	record, err := q.q.one(ctx)
	if err != nil || record == nil {
		return zero, false, err
	}
	v, err := cast[T](record)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Rows executes the query in array mode and returns the raw rows.
func (q *Query[T]) Rows(ctx context.Context) ([]Row, error) {
	q2 := q.q.clone()
	q2.asArray = true
	records, err := q2.all(ctx)
	if err != nil {
		return nil, err
	}
	return castAll[Row](records)
}

// Indexed executes the query and keys the records by the IndexBy
// attribute. Later records overwrite earlier ones with the same key;
// records lacking the attribute are dropped.
func (q *Query[T]) Indexed(ctx context.Context) (map[string]T, error) {
	if q.q.indexBy == "" {
		return nil, configError("Indexed on %s requires IndexBy", q.q.model.alias())
	}
	records, err := q.q.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(records))
	for _, r := range records {
		v, ok := r.Attribute(q.q.indexBy)
		if !ok || v == nil {
			continue
		}
		key, ok := formatScalar(v)
		if !ok {
			continue
		}
		t, err := cast[T](r)
		if err != nil {
			return nil, err
		}
		out[key] = t
	}
	return out, nil
}

// Count returns the total number of matching records, read from the count
// header of a HEAD request.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	return q.q.count(ctx)
}

// Exists reports whether at least one record matches.
func (q *Query[T]) Exists(ctx context.Context) (bool, error) {
	n, err := q.q.count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create POSTs body to the collection and returns the created record.
// Path placeholders resolve from body.
func (q *Query[T]) Create(ctx context.Context, body Params) (T, error) {
	var zero T
	e, err := q.q.conn.Create(ctx, q.q.model, body)
	if err != nil {
		return zero, err
	}
	return cast[T](e)
}

// Update PATCHes body to the record's member URL and returns the record
// the server sent back.
func (q *Query[T]) Update(ctx context.Context, record T, body Params) (T, error) {
	var zero T
	e, err := asEntity(record)
	if err != nil {
		return zero, err
	}
	updated, err := q.q.conn.Update(ctx, q.q.model, e, body)
	if err != nil {
		return zero, err
	}
	return cast[T](updated)
}

// Delete DELETEs the record's member URL.
func (q *Query[T]) Delete(ctx context.Context, record T) error {
	e, err := asEntity(record)
	if err != nil {
		return err
	}
	return q.q.conn.Delete(ctx, q.q.model, e)
}

func asEntity(v any) (Entity, error) {
	e, ok := v.(Entity)
	if !ok {
		return nil, fmt.Errorf("orm: %T does not implement Entity", v)
	}
	return e, nil
}

func cast[T any](e Entity) (T, error) {
	v, ok := e.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("orm: record %T is not %T", e, zero)
	}
	return v, nil
}

func castAll[T any](records []Entity) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		v, err := cast[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
