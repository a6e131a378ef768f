package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/restorm/filter"
	"github.com/mickamy/restorm/scope"
)

// mockApplier records calls from Scope.Apply for assertions.
type mockApplier struct {
	wheres   []filter.Condition
	orderBys []string
	selects  [][]string
	with     [][]string
	params   map[string]any
	none     bool
}

func (m *mockApplier) ApplyWhere(cond filter.Condition) { m.wheres = append(m.wheres, cond) }
func (m *mockApplier) ApplyOrderBy(clause string)       { m.orderBys = append(m.orderBys, clause) }
func (m *mockApplier) ApplySelect(fields []string)      { m.selects = append(m.selects, fields) }
func (m *mockApplier) ApplyWith(relations []string)     { m.with = append(m.with, relations) }
func (m *mockApplier) ApplyNone()                       { m.none = true }

func (m *mockApplier) ApplyParam(key string, value any) {
	if m.params == nil {
		m.params = make(map[string]any)
	}
	m.params[key] = value
}

func TestWhere(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.Where(filter.Eq("age", 18)).Apply(m)

	require.Len(t, m.wheres, 1)
	assert.Equal(t, filter.Eq("age", 18), m.wheres[0])
}

func TestEq(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.Eq("role", "admin").Apply(m)

	require.Len(t, m.wheres, 1)
	assert.Equal(t, filter.Eq("role", "admin"), m.wheres[0])
}

func TestOrderBy(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.OrderBy("-created_at").Apply(m)

	assert.Equal(t, []string{"-created_at"}, m.orderBys)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.Select("id", "name", "email").Apply(m)

	assert.Equal(t, [][]string{{"id", "name", "email"}}, m.selects)
}

func TestWith(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.With("posts", "posts.comments").Apply(m)

	assert.Equal(t, [][]string{{"posts", "posts.comments"}}, m.with)
}

func TestParam(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.Param("q", "alice").Apply(m)

	assert.Equal(t, map[string]any{"q": "alice"}, m.params)
}

func TestIn(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.In("id", []int{1, 2, 3}).Apply(m)

	require.Len(t, m.wheres, 1)
	assert.Equal(t, filter.InExpr{Attribute: "id", Values: []any{1, 2, 3}}, m.wheres[0])
	assert.False(t, m.none)
}

func TestInEmpty(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.In("id", []int{}).Apply(m)

	assert.Empty(t, m.wheres)
	assert.True(t, m.none)
}

func TestInStrings(t *testing.T) {
	t.Parallel()

	m := &mockApplier{}
	scope.In("role", []string{"admin", "editor"}).Apply(m)

	require.Len(t, m.wheres, 1)
	assert.Equal(t, filter.InExpr{Attribute: "role", Values: []any{"admin", "editor"}}, m.wheres[0])
}

func TestScopesAppend(t *testing.T) {
	t.Parallel()

	s1 := scope.Combine(scope.Eq("a", 1))
	s2 := s1.Append(scope.Eq("b", 2), scope.OrderBy("id"))

	assert.Len(t, s1, 1, "original modified")
	assert.Len(t, s2, 3)
}

func TestScopesMerge(t *testing.T) {
	t.Parallel()

	base := scope.Combine(scope.Eq("active", true), scope.OrderBy("id"))
	extra := scope.Combine(scope.Select("id"), scope.With("posts"))
	merged := base.Merge(extra)

	assert.Len(t, base, 2)
	assert.Len(t, extra, 2)
	require.Len(t, merged, 4)

	m := &mockApplier{}
	for _, s := range merged {
		s.Apply(m)
	}
	assert.Len(t, m.wheres, 1)
	assert.Len(t, m.orderBys, 1)
	assert.Len(t, m.selects, 1)
	assert.Len(t, m.with, 1)
}

func TestScopesAppendDoesNotMutate(t *testing.T) {
	t.Parallel()

	original := scope.Combine(scope.Eq("x", 1))
	_ = original.Append(scope.Eq("y", 2))

	require.Len(t, original, 1)
}
