package scope

import "github.com/mickamy/restorm/filter"

// Applier is implemented by query builders to receive scope fragments.
// This interface lives in the scope package so that orm can import scope
// without creating circular dependencies.
type Applier interface {
	ApplyWhere(cond filter.Condition)
	ApplyOrderBy(clause string)
	ApplySelect(fields []string)
	ApplyWith(relations []string)
	ApplyParam(key string, value any)
	ApplyNone()
}

type scopeKind int

const (
	kindWhere scopeKind = iota
	kindOrderBy
	kindSelect
	kindWith
	kindParam
	kindNone
)

// Scope represents a single query fragment.
// Scopes are immutable and safe to reuse across queries.
type Scope struct {
	kind   scopeKind
	cond   filter.Condition
	clause string
	names  []string
	value  any
}

// Apply dispatches this Scope to the given Applier.
func (s Scope) Apply(a Applier) {
	switch s.kind {
	case kindWhere:
		a.ApplyWhere(s.cond)
	case kindOrderBy:
		a.ApplyOrderBy(s.clause)
	case kindSelect:
		a.ApplySelect(append([]string(nil), s.names...))
	case kindWith:
		a.ApplyWith(append([]string(nil), s.names...))
	case kindParam:
		a.ApplyParam(s.clause, s.value)
	case kindNone:
		a.ApplyNone()
	}
}

// Where returns a Scope that conjoins a filter condition.
//
//	scope.Where(filter.Eq("status", "active"))
func Where(cond filter.Condition) Scope {
	return Scope{kind: kindWhere, cond: cond}
}

// Eq is shorthand for Where(filter.Eq(attribute, value)).
func Eq(attribute string, value any) Scope {
	return Where(filter.Eq(attribute, value))
}

// OrderBy returns a Scope that appends a sort key. A leading "-" sorts
// descending.
//
//	scope.OrderBy("-created_at")
func OrderBy(clause string) Scope {
	return Scope{kind: kindOrderBy, clause: clause}
}

// Select returns a Scope that restricts the returned fields.
//
//	scope.Select("id", "name")
func Select(fields ...string) Scope {
	return Scope{kind: kindSelect, names: fields}
}

// With returns a Scope that eagerly loads the named relations.
func With(relations ...string) Scope {
	return Scope{kind: kindWith, names: relations}
}

// Param returns a Scope that sets a raw query parameter.
func Param(key string, value any) Scope {
	return Scope{kind: kindParam, clause: key, value: value}
}

// None returns a Scope that marks the query as matching nothing. The query
// is answered without a request.
func None() Scope {
	return Scope{kind: kindNone}
}

// In returns a WHERE scope with a membership condition. No reflection is
// used; generics handle the type conversion. An empty slice yields None.
//
//	scope.In("id", []int{1, 2, 3})  // → filter[id][in][]=1&…
func In[T any](attribute string, values []T) Scope {
	if len(values) == 0 {
		return None()
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return Where(filter.In(attribute, args...))
}

// Scopes is a named slice of Scope, useful for conditionally building
// up a set of scopes.
//
//	var s scope.Scopes
//	if onlyActive {
//	    s = s.Append(Active)
//	}
//	s = s.Append(scope.OrderBy("-id"))
//	model.Users(conn).Scopes(s...).All(ctx)
type Scopes []Scope

// Append adds scopes and returns a new Scopes. The receiver is not modified.
func (ss Scopes) Append(scopes ...Scope) Scopes {
	return append(append(Scopes(nil), ss...), scopes...)
}

// Merge concatenates two Scopes and returns a new Scopes.
// Neither receiver nor argument is modified.
func (ss Scopes) Merge(other Scopes) Scopes {
	return append(append(Scopes(nil), ss...), other...)
}

// Combine creates a Scopes from the given scopes.
//
//	scope.Combine(scope.OrderBy("id"), scope.Select("id", "name"))
func Combine(scopes ...Scope) Scopes {
	return Scopes(scopes)
}
