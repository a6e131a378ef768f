package orm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/restorm/filter"
	"github.com/mickamy/restorm/orm"
)

func TestDialectParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect orm.Dialect
		sort    string
		fields  string
		expand  string
		count   string
	}{
		{name: "Yii", dialect: orm.Yii, sort: "sort", fields: "fields", expand: "expand", count: "X-Pagination-Total-Count"},
		{name: "JSONAPI", dialect: orm.JSONAPI, sort: "sort", fields: "fields", expand: "include", count: "X-Total-Count"},
		{name: "JSONServer", dialect: orm.JSONServer, sort: "_sort", fields: "", expand: "_embed", count: "X-Total-Count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.sort, tt.dialect.SortParam())
			assert.Equal(t, tt.fields, tt.dialect.FieldsParam())
			assert.Equal(t, tt.expand, tt.dialect.ExpandParam())
			assert.Equal(t, tt.count, tt.dialect.CountHeader())
		})
	}
}

func TestBracketDialectFilter(t *testing.T) {
	t.Parallel()

	p, err := orm.Yii.Filter(filter.And(filter.Eq("status", "active"), filter.In("id", 1, 2)))
	require.NoError(t, err)
	assert.Equal(t,
		"filter%5Bid%5D%5Bin%5D%5B%5D=1&filter%5Bid%5D%5Bin%5D%5B%5D=2&filter%5Bstatus%5D=active",
		orm.EncodeParams(p),
	)
}

func TestJSONServerDialectFilter(t *testing.T) {
	t.Parallel()

	p, err := orm.JSONServer.Filter(filter.And(filter.Eq("userId", 1), filter.In("id", 3, 4)))
	require.NoError(t, err)
	assert.Equal(t, "id=3&id=4&userId=1", orm.EncodeParams(p))

	_, err = orm.JSONServer.Filter(filter.Or(filter.Eq("a", 1), filter.Eq("b", 2)))
	assert.Error(t, err)

	_, err = orm.JSONServer.Filter(filter.And(filter.Eq("a", 1), filter.Eq("a", 2)))
	assert.Error(t, err)
}

func TestDialectFilterRejectsNullOperands(t *testing.T) {
	t.Parallel()

	conds := map[string]filter.Condition{
		"eq null":        filter.Eq("deleted_at", nil),
		"in with null":   filter.In("id", 1, nil),
		"empty in":       filter.InExpr{Attribute: "id"},
		"null under and": filter.And(filter.Eq("status", "active"), filter.Eq("deleted_at", nil)),
		"null under or":  filter.Or(filter.Eq("status", "active"), filter.Eq("deleted_at", nil)),
	}

	for _, d := range []orm.Dialect{orm.Yii, orm.JSONAPI, orm.JSONServer} {
		for name, cond := range conds {
			_, err := d.Filter(cond)
			assert.Error(t, err, name)
		}
	}
}

func TestNullFilterFailsBeforeRequest(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	srv.reply("/users", `[]`)
	conn := srv.open(t)

	_, err := orm.From[orm.Row](conn, userModel()).Where(filter.Eq("deleted_at", nil)).All(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleted_at")
	assert.Zero(t, srv.requestCount())
}

func TestJSONAPIDialectExpandsWithInclude(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	srv.reply("/users", `[]`)
	conn := srv.open(t, orm.WithDialect(orm.JSONAPI))

	_, err := orm.From[orm.Row](conn, userModel()).Join("posts").All(t.Context())
	assert.NoError(t, err)

	q := srv.lastQuery()
	assert.Equal(t, "posts", q.Get("include"))
	assert.Empty(t, q.Get("expand"))
}

func TestJSONServerDialectSkipsFields(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	srv.reply("/users", `[]`)
	conn := srv.open(t, orm.WithDialect(orm.JSONServer))

	_, err := orm.From[orm.Row](conn, userModel()).
		Where(filter.Eq("name", "Bret")).
		Select("id", "name").
		OrderBy("-id").
		All(t.Context())
	require.NoError(t, err)

	q := srv.lastQuery()
	assert.Equal(t, "Bret", q.Get("name"))
	assert.Equal(t, "-id", q.Get("_sort"))
	assert.NotContains(t, q, "fields")
	assert.NotContains(t, q, "")
}
