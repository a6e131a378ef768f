package testdata

import "time"

type User struct {
	ID        int       `rest:"id,primaryKey"`
	Name      string    `rest:"name"`
	Email     string    `rest:"email"`
	Role      string    `rest:"role"`
	Active    bool      `rest:"active"`
	CreatedAt time.Time `rest:"createdAt"`
	ManagerID *int      `rest:"managerId"`
	Posts     []*Post   `rel:"has_many,foreign_key:userId"`
	internal  string    // unexported, no tag: skipped
}

type Post struct {
	ID     int    `rest:"id,primaryKey"`
	UserID int    `rest:"userId"`
	Title  string `rest:"title"`
}
