package testdata

type Author struct {
	ID   int
	Name string
	// has_many: Author has many Articles
	Articles []Article `rel:"has_many,foreign_key:author_id"`
	// via: comments on the author's articles
	Comments []*Comment `rel:"has_many,link:article_id=id,via:articles"`
	// has_one with a custom relation name
	Bio *Biography `rel:"has_one,name:biography,link:author_id=id"`
}

type Article struct {
	ID       int
	AuthorID int
	Title    string
	// belongs_to: Article belongs to Author
	Author *Author `rel:"belongs_to,foreign_key:author_id"`
	// many_to_many through a junction resource
	Tags []*Tag `rel:"many_to_many,junction:article_tags,foreign_key:article_id,references:tag_id"`
	// many_to_many through a generated junction model
	Editors []Author `rel:"many_to_many,junction:ArticleEditor,junction_link:article_id=id,link:id=editor_id"`
}

type Comment struct {
	ID        int
	ArticleID int
	Body      string
}

type Biography struct {
	ID       int
	AuthorID int
	Text     string
}

type Tag struct {
	ID   int
	Name string
}

type ArticleEditor struct {
	ArticleID int `rest:"article_id,primaryKey"`
	EditorID  int `rest:"editor_id,primaryKey"`
}
