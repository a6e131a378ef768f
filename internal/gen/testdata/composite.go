package testdata

type PostTag struct {
	PostID int `rest:"post_id,primaryKey"`
	TagID  int `rest:"tag_id,primaryKey"`
}

// ResourceName overrides the inferred resource path.
func (PostTag) ResourceName() string { return "posts/{post_id}/tags" }
