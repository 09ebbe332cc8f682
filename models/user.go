package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User roles. Admins may mutate or delete any post.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account in the users collection. Username and
// email each carry a unique index. Password holds the bcrypt hash and
// never leaves the server.
type User struct {
	ID        bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Username  string        `json:"username" bson:"username"`
	Email     string        `json:"email" bson:"email"`
	Password  string        `json:"-" bson:"password"`
	Role      string        `json:"role" bson:"role"`
	Bio       string        `json:"bio,omitempty" bson:"bio,omitempty"`
	Avatar    string        `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuthorSummary is the denormalized author view embedded in blog
// responses in place of the raw author id.
type AuthorSummary struct {
	ID       bson.ObjectID `json:"id"`
	Username string        `json:"username"`
	Avatar   string        `json:"avatar,omitempty"`
	Bio      string        `json:"bio,omitempty"`
}

// Summary projects the display fields used when a user appears as a
// post or comment author.
func (u *User) Summary() AuthorSummary {
	return AuthorSummary{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   u.Avatar,
		Bio:      u.Bio,
	}
}
