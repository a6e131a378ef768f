package orm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/restorm/orm"
)

func TestDecodeRow(t *testing.T) {
	t.Parallel()

	var u testUser
	require.NoError(t, orm.DecodeRow(orm.Row{"id": float64(7), "name": "alice", "extra": true}, &u))
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, "alice", u.Name)

	err := orm.DecodeRow(orm.Row{"id": "seven"}, &u)
	assert.Error(t, err)
}

func TestDecodeAttrs(t *testing.T) {
	t.Parallel()

	var (
		id        int
		title     string
		parentID  *int
		createdAt time.Time
		untouched = "keep"
	)
	err := orm.DecodeAttrs(orm.Row{
		"id":         "12",
		"title":      "hello",
		"parent_id":  float64(3),
		"created_at": "2024-05-01T10:00:00Z",
	}, map[string]any{
		"id":         &id,
		"title":      &title,
		"parent_id":  &parentID,
		"created_at": &createdAt,
		"missing":    &untouched,
	})
	require.NoError(t, err)

	assert.Equal(t, 12, id)
	assert.Equal(t, "hello", title)
	require.NotNil(t, parentID)
	assert.Equal(t, 3, *parentID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), createdAt.UTC())
	assert.Equal(t, "keep", untouched)
}

func TestDecodeAttrsError(t *testing.T) {
	t.Parallel()

	var id int
	err := orm.DecodeAttrs(orm.Row{"id": []any{1}}, map[string]any{"id": &id})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"id"`)
}

func TestAsSliceAndAs(t *testing.T) {
	t.Parallel()

	a, b := orm.Row{"id": 1}, orm.Row{"id": 2}
	u := &testUser{ID: 3}

	assert.Equal(t, []orm.Row{a, b}, orm.AsSlice[orm.Row]([]orm.Entity{a, u, b}))
	assert.Empty(t, orm.AsSlice[orm.Row](nil))

	assert.Equal(t, u, orm.As[*testUser](orm.Entity(u)))
	assert.Nil(t, orm.As[*testUser](nil))
	assert.Nil(t, orm.As[*testUser](a))
}
