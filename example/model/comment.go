package model

//go:generate go tool restormgen --type=Comment

type Comment struct {
	ID     int    `rest:"id,primaryKey"`
	PostID int    `rest:"postId"`
	Name   string `rest:"name"`
	Email  string `rest:"email"`
	Body   string `rest:"body"`
	Post   *Post  `rel:"belongs_to,link:id=postId"`
}
