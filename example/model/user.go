package model

//go:generate go tool restormgen --type=User

type User struct {
	ID       int        `rest:"id,primaryKey"`
	Name     string     `rest:"name"`
	Username string     `rest:"username"`
	Email    string     `rest:"email"`
	Phone    string     `rest:"phone"`
	Website  string     `rest:"website"`
	Posts    []*Post    `rel:"has_many,link:userId=id"`
	Comments []*Comment `rel:"has_many,link:postId=id,via:posts"`
}
