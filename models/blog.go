package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Blog post status values. Anything else in a payload is rejected.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Comment is an embedded document on a Blog. Comments are append-only:
// nothing in the API mutates or removes one once pushed.
type Comment struct {
	ID        string        `json:"id" bson:"id"`
	User      bson.ObjectID `json:"user" bson:"user"`
	Content   string        `json:"content" bson:"content"`
	CreatedAt time.Time     `json:"createdAt" bson:"created_at"`
}

// Blog represents a single post in the blogs collection. Slug carries a
// unique index; Likes and Comments are only ever mutated through
// server-side array operators so concurrent requests cannot overwrite
// each other.
type Blog struct {
	ID        bson.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title     string          `json:"title" bson:"title"`
	Slug      string          `json:"slug" bson:"slug"`
	Content   string          `json:"content" bson:"content"`
	Excerpt   string          `json:"excerpt" bson:"excerpt"`
	Author    bson.ObjectID   `json:"author" bson:"author"`
	Status    string          `json:"status" bson:"status"`
	Likes     []bson.ObjectID `json:"likes" bson:"likes"`
	Comments  []Comment       `json:"comments" bson:"comments"`
	Tags      []string        `json:"tags" bson:"tags"`
	ReadTime  int             `json:"readTime" bson:"read_time"`
	CreatedAt time.Time       `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updated_at"`
}

// LikedBy reports whether userID is a member of the likes set.
func (b *Blog) LikedBy(userID bson.ObjectID) bool {
	for _, id := range b.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
