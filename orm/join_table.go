package orm

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
)

// keyString renders a link or primary key value so that equal JSON values
// compare equal: 1, int64(1) and float64(1) share a key, "1" does not.
func keyString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%v", v, v)
	}
	return string(b)
}

// compositeKey serializes an ordered key sequence.
func compositeKey(values []any) string {
	return keyString(values)
}

// collectValues reads attr from every model. Collection values are
// spliced in element by element and nulls are skipped.
func collectValues(models []Entity, attr string) []any {
	var out []any
	for _, m := range models {
		v, ok := m.Attribute(attr)
		if !ok || v == nil {
			continue
		}
		out = append(out, splice(v)...)
	}
	return out
}

func splice(v any) []any {
	if _, bytes := v.([]byte); bytes {
		return []any{v}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, 0, rv.Len())
	for i := range rv.Len() {
		if e := rv.Index(i).Interface(); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// uniqueValues drops repeated values, keeping first-seen order.
func uniqueValues(values []any) []any {
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		k := keyString(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// linkKeys returns the bucket keys of e for attrs. A single attribute
// holding a collection yields one key per element. Absent or null values
// yield no key.
func linkKeys(e Entity, attrs []string) []string {
	if len(attrs) == 1 {
		v, ok := e.Attribute(attrs[0])
		if !ok || v == nil {
			return nil
		}
		elems := splice(v)
		keys := make([]string, len(elems))
		for i, el := range elems {
			keys[i] = keyString(el)
		}
		return keys
	}
	values := make([]any, len(attrs))
	for i, a := range attrs {
		v, ok := e.Attribute(a)
		if !ok || v == nil {
			return nil
		}
		values[i] = v
	}
	return []string{compositeKey(values)}
}

// groupByKeys buckets records by their keys for attrs.
func groupByKeys(records []Entity, attrs []string) map[string][]Entity {
	m := make(map[string][]Entity)
	for _, r := range records {
		for _, k := range linkKeys(r, attrs) {
			m[k] = append(m[k], r)
		}
	}
	return m
}

// lookup gathers the bucketed records matching any key of e for attrs.
func lookup(buckets map[string][]Entity, e Entity, attrs []string) []Entity {
	var out []Entity
	for _, k := range linkKeys(e, attrs) {
		out = append(out, buckets[k]...)
	}
	return out
}

// groupByJunction maps every junction row's owner-side key to the related
// records its target-side values point at. ownerAttrs are junction
// attributes referring to the owner, targetAttrs junction attributes
// referring to related records, and relatedAttrs the matching attributes
// of the related records.
func groupByJunction(junction, related []Entity, ownerAttrs, targetAttrs, relatedAttrs []string) map[string][]Entity {
	relatedByKey := groupByKeys(related, relatedAttrs)
	out := make(map[string][]Entity)
	for _, j := range junction {
		matches := lookup(relatedByKey, j, targetAttrs)
		if len(matches) == 0 {
			continue
		}
		for _, k := range linkKeys(j, ownerAttrs) {
			out[k] = append(out[k], matches...)
		}
	}
	return out
}
