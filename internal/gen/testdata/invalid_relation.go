package testdata

type Broken struct {
	ID    int
	Posts *Post `rel:"has_many,foreign_key:broken_id"`
}
