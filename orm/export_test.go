package orm

import (
	"context"
	"time"
)

// Exported for use in orm_test package.

// FlattenParams returns the placeholder lookup table of params.
func FlattenParams(params Params) map[string]any {
	out := make(map[string]any)
	for k, e := range flattenParams(params) {
		out[k] = e.value
	}
	return out
}

// EncodeParams renders params as a query string.
func EncodeParams(params Params) string {
	return encodeParams(params)
}

// RemoveDuplicates runs primary-key de-duplication over records.
func RemoveDuplicates(m *Model, records []Entity) ([]Entity, error) {
	return removeDuplicates(m, records)
}

// FilterByModels restricts q by the links of models.
func FilterByModels[T any](q *Query[T], links []Link, models []Entity) *Query[T] {
	q2 := q.clone()
	q2.q.filterByModels(links, models)
	return q2
}

// IsGuaranteedEmpty reports whether q will be answered without a request.
func IsGuaranteedEmpty[T any](q *Query[T]) bool {
	return q.q.state == stateGuaranteedEmpty
}

// RequestParams returns the parameters q would send.
func RequestParams[T any](q *Query[T]) (Params, error) {
	return q.q.requestParams()
}

// NewConsoleLoggerTo is NewConsoleLogger writing to out.
var NewConsoleLoggerTo = newConsoleLogger

// Now returns the time the transport would read from ctx.
func Now(ctx context.Context) time.Time {
	return clockFrom(ctx).Now()
}
