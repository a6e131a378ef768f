package repo

import (
	"context"

	"github.com/mickamy/restorm/example/model"
	"github.com/mickamy/restorm/filter"
	"github.com/mickamy/restorm/orm"
	"github.com/mickamy/restorm/scope"
)

// UserRepository wraps generated query functions with a repository pattern.
type UserRepository struct {
	conn *orm.Connection
}

func NewUserRepository(conn *orm.Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, bool, error) {
	return model.Users(r.conn).Where(filter.Eq("id", id)).One(ctx)
}

func (r *UserRepository) FindAll(ctx context.Context, scopes ...scope.Scope) ([]*model.User, error) {
	return model.Users(r.conn).Scopes(scopes...).OrderBy("id").All(ctx)
}

// FindWithPosts loads users together with their posts and the comments on
// those posts.
func (r *UserRepository) FindWithPosts(ctx context.Context, ids ...int) ([]*model.User, error) {
	return model.Users(r.conn).Scopes(scope.In("id", ids)).With("posts.comments").All(ctx)
}

func (r *UserRepository) ByUsername(ctx context.Context) (map[string]*model.User, error) {
	return model.Users(r.conn).IndexBy("username").Indexed(ctx)
}
