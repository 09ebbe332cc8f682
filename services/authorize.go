package services

import (
	"github.com/inkwell-blog/backend/models"
)

// CanMutate is the single authorization predicate for post mutation:
// the author of the post, or any admin. Likes and comments are open to
// every authenticated user and do not go through this check.
func CanMutate(post *models.Blog, actor *models.User) bool {
	if actor == nil {
		return false
	}
	return post.Author == actor.ID || actor.IsAdmin()
}

// CanViewDraft gates draft posts behind the same predicate used for
// mutation, so a guessed slug does not leak unpublished content.
// Published posts are always visible.
func CanViewDraft(post *models.Blog, actor *models.User) bool {
	if post.Status == models.StatusPublished {
		return true
	}
	return CanMutate(post, actor)
}
