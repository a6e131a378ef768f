package repo

import (
	"context"

	"github.com/mickamy/restorm/example/model"
	"github.com/mickamy/restorm/orm"
)

type PostRepository struct {
	conn *orm.Connection
}

func NewPostRepository(conn *orm.Connection) *PostRepository {
	return &PostRepository{conn: conn}
}

func (r *PostRepository) Create(ctx context.Context, userID int, title, body string) (*model.Post, error) {
	return model.Posts(r.conn).Create(ctx, orm.Params{"userId": userID, "title": title, "body": body})
}

func (r *PostRepository) Rename(ctx context.Context, p *model.Post, title string) (*model.Post, error) {
	return model.Posts(r.conn).Update(ctx, p, orm.Params{"title": title})
}

func (r *PostRepository) Delete(ctx context.Context, p *model.Post) error {
	return model.Posts(r.conn).Delete(ctx, p)
}
