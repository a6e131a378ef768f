// Package filter holds the predicate tree attached to REST queries and its
// encoding into nested query parameters.
//
// A condition tree encodes into a nested mapping which the caller places
// under its filter parameter:
//
//	filter.And(filter.Eq("status", "active"), filter.In("id", 1, 2))
//	// → {"status": "active", "id": {"in": [1, 2]}}
//	// → filter[status]=active&filter[id][in][]=1&filter[id][in][]=2
package filter

import "fmt"

// Condition is a node of the predicate tree.
type Condition interface {
	// Encode returns the nested parameter mapping for this condition.
	Encode() map[string]any
	fmt.Stringer
}

// EqExpr matches rows whose attribute equals Value.
type EqExpr struct {
	Attribute string
	Value     any
}

// InExpr matches rows whose attribute is one of Values.
type InExpr struct {
	Attribute string
	Values    []any
}

// AndExpr matches rows satisfying every child condition.
type AndExpr []Condition

// OrExpr matches rows satisfying at least one child condition.
type OrExpr []Condition

// Eq returns an equality condition.
func Eq(attribute string, value any) EqExpr {
	return EqExpr{Attribute: attribute, Value: value}
}

// In returns a membership condition. A single value collapses to Eq.
//
//	filter.In("id", 1, 2, 3)
func In(attribute string, values ...any) Condition {
	if len(values) == 1 {
		return Eq(attribute, values[0])
	}
	return InExpr{Attribute: attribute, Values: append([]any(nil), values...)}
}

// And conjoins conditions. Nil children are dropped and a single remaining
// child is returned as is.
func And(conds ...Condition) Condition {
	out := compact(conds)
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return AndExpr(out)
}

// Or disjoins conditions. Nil children are dropped and a single remaining
// child is returned as is.
func Or(conds ...Condition) Condition {
	out := compact(conds)
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return OrExpr(out)
}

func (e EqExpr) Encode() map[string]any {
	return map[string]any{e.Attribute: e.Value}
}

func (e EqExpr) String() string {
	return fmt.Sprintf("%s = %v", e.Attribute, e.Value)
}

func (e InExpr) Encode() map[string]any {
	return map[string]any{e.Attribute: map[string]any{"in": append([]any(nil), e.Values...)}}
}

func (e InExpr) String() string {
	return fmt.Sprintf("%s IN %v", e.Attribute, e.Values)
}

// Encode merges the children into one mapping. When two children constrain
// the same key the children are kept apart under "and".
func (e AndExpr) Encode() map[string]any {
	merged := make(map[string]any)
	for _, c := range e {
		for k, v := range c.Encode() {
			if _, dup := merged[k]; dup {
				return map[string]any{"and": encodeAll(e)}
			}
			merged[k] = v
		}
	}
	return merged
}

func (e AndExpr) String() string {
	return join(e, " AND ")
}

func (e OrExpr) Encode() map[string]any {
	return map[string]any{"or": encodeAll(e)}
}

func (e OrExpr) String() string {
	return join(e, " OR ")
}

func encodeAll(conds []Condition) []any {
	out := make([]any, len(conds))
	for i, c := range conds {
		out[i] = c.Encode()
	}
	return out
}

func compact(conds []Condition) []Condition {
	out := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func join(conds []Condition, sep string) string {
	s := "("
	for i, c := range conds {
		if i > 0 {
			s += sep
		}
		s += c.String()
	}
	return s + ")"
}
