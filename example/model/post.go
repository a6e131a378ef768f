package model

import "strings"

//go:generate go tool restormgen --type=Post

type Post struct {
	ID       int        `rest:"id,primaryKey"`
	UserID   int        `rest:"userId"`
	Title    string     `rest:"title"`
	Body     string     `rest:"body"`
	User     *User      `rel:"belongs_to,link:id=userId"`
	Comments []*Comment `rel:"has_many,link:postId=id"`

	Summary string `rest:"-"`
}

// AfterFind derives the summary line shown in listings.
func (p *Post) AfterFind() {
	p.Summary, _, _ = strings.Cut(p.Body, "\n")
}
