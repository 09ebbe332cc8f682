package api

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/inkwell-blog/backend/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler authHandler
	blogHandler blogHandler
	userHandler userHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// BlogResponse is a blog post with its author resolved to a display
// summary and its like membership flattened to hex ids.
type BlogResponse struct {
	ID        bson.ObjectID        `json:"id"`
	Title     string               `json:"title"`
	Slug      string               `json:"slug"`
	Content   string               `json:"content"`
	Excerpt   string               `json:"excerpt"`
	Author    models.AuthorSummary `json:"author"`
	Status    string               `json:"status"`
	Likes     []bson.ObjectID      `json:"likes"`
	Comments  []CommentResponse    `json:"comments"`
	Tags      []string             `json:"tags"`
	ReadTime  int                  `json:"readTime"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// CommentResponse is a comment with its author resolved.
type CommentResponse struct {
	ID        string               `json:"id"`
	User      models.AuthorSummary `json:"user"`
	Content   string               `json:"content"`
	CreatedAt time.Time            `json:"createdAt"`
}

// BlogListResponse is the paginated envelope for the public listing.
type BlogListResponse struct {
	Blogs       []BlogResponse `json:"blogs"`
	TotalPages  int64          `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

// StatsResponse is the per-user dashboard aggregate.
type StatsResponse struct {
	TotalBlogs     int64 `json:"totalBlogs"`
	PublishedBlogs int64 `json:"publishedBlogs"`
	DraftBlogs     int64 `json:"draftBlogs"`
	TotalLikes     int64 `json:"totalLikes"`
}

// LikeResponse reports the result of a like toggle.
type LikeResponse struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// AuthResponse carries a fresh token plus the account it belongs to.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// UserSummary is the account view returned by the auth endpoints.
type UserSummary struct {
	ID       bson.ObjectID `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Role     string        `json:"role"`
	Bio      string        `json:"bio,omitempty"`
	Avatar   string        `json:"avatar,omitempty"`
}

func newUserSummary(user *models.User) UserSummary {
	return UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Bio:      user.Bio,
		Avatar:   user.Avatar,
	}
}

// newBlogResponse builds the response view of a post. userByID supplies
// the author and comment-user summaries; unknown ids (deleted accounts)
// degrade to an id-only summary.
func newBlogResponse(blog *models.Blog, userByID map[bson.ObjectID]models.AuthorSummary) BlogResponse {
	comments := make([]CommentResponse, 0, len(blog.Comments))
	for _, comment := range blog.Comments {
		comments = append(comments, CommentResponse{
			ID:        comment.ID,
			User:      summaryFor(userByID, comment.User),
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		})
	}

	likes := blog.Likes
	if likes == nil {
		likes = []bson.ObjectID{}
	}
	tags := blog.Tags
	if tags == nil {
		tags = []string{}
	}

	return BlogResponse{
		ID:        blog.ID,
		Title:     blog.Title,
		Slug:      blog.Slug,
		Content:   blog.Content,
		Excerpt:   blog.Excerpt,
		Author:    summaryFor(userByID, blog.Author),
		Status:    blog.Status,
		Likes:     likes,
		Comments:  comments,
		Tags:      tags,
		ReadTime:  blog.ReadTime,
		CreatedAt: blog.CreatedAt,
		UpdatedAt: blog.UpdatedAt,
	}
}

func summaryFor(userByID map[bson.ObjectID]models.AuthorSummary, id bson.ObjectID) models.AuthorSummary {
	if summary, ok := userByID[id]; ok {
		return summary
	}
	return models.AuthorSummary{ID: id}
}
