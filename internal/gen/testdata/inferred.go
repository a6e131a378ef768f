package testdata

import "time"

type Inferred struct {
	ID        int       `rest:",primaryKey"`
	Name      string    // no rest tag: attribute inferred as "name"
	CreatedAt time.Time // no rest tag: attribute inferred as "created_at"
	Secret    string    `rest:"-"` // explicitly skipped
	internal  string    // unexported: skipped
}
