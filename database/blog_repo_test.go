package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/inkwell-blog/backend/errs"
	"github.com/inkwell-blog/backend/models"
)

func testBlog(author bson.ObjectID, title, slug string) *models.Blog {
	return &models.Blog{
		Title:    title,
		Slug:     slug,
		Content:  "some content",
		Excerpt:  "some content...",
		Author:   author,
		Status:   models.StatusPublished,
		ReadTime: 1,
	}
}

func TestBlogRepo_InsertAndFind(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	author := bson.NewObjectID()
	blog := testBlog(author, "Hello, World!", "hello-world")
	require.NoError(t, repo.Insert(ctx, blog))

	assert.False(t, blog.ID.IsZero())
	assert.False(t, blog.CreatedAt.IsZero())
	assert.NotNil(t, blog.Likes)
	assert.NotNil(t, blog.Comments)
	assert.NotNil(t, blog.Tags)

	byID, err := repo.FindByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", byID.Title)

	bySlug, err := repo.FindBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, blog.ID, bySlug.ID)

	_, err = repo.FindBySlug(ctx, "no-such-slug")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogRepo_DuplicateSlugInsert(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	author := bson.NewObjectID()
	require.NoError(t, repo.Insert(ctx, testBlog(author, "First", "same-slug")))

	err := repo.Insert(ctx, testBlog(author, "Second", "same-slug"))
	require.Error(t, err)
	// The unique index surfaces as a duplicate-key error the handlers
	// re-suffix and retry on.
	assert.True(t, errs.IsDuplicateKey(err))
	assert.Equal(t, 409, errs.NewDatabaseError("create", "blog", err).StatusCode)
}

func TestBlogRepo_SlugTaken(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	blog := testBlog(bson.NewObjectID(), "Mine", "mine")
	require.NoError(t, repo.Insert(ctx, blog))

	taken, err := repo.SlugTaken(ctx, "mine", bson.ObjectID{})
	require.NoError(t, err)
	assert.True(t, taken)

	// A post's own slug does not count against it on update.
	taken, err = repo.SlugTaken(ctx, "mine", blog.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.SlugTaken(ctx, "unused", bson.ObjectID{})
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestBlogRepo_UpdateSparsePatch(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	blog := testBlog(bson.NewObjectID(), "Original", "original")
	blog.Tags = []string{"go"}
	require.NoError(t, repo.Insert(ctx, blog))

	content := "rewritten content"
	readTime := 2
	require.NoError(t, repo.Update(ctx, blog.ID, BlogPatch{
		Content:  &content,
		ReadTime: &readTime,
	}))

	updated, err := repo.FindByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "rewritten content", updated.Content)
	assert.Equal(t, 2, updated.ReadTime)
	// Fields outside the patch are untouched.
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "original", updated.Slug)
	assert.Equal(t, []string{"go"}, updated.Tags)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	// A non-nil empty tags slice clears the stored tags.
	require.NoError(t, repo.Update(ctx, blog.ID, BlogPatch{Tags: []string{}}))
	updated, err = repo.FindByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)

	err = repo.Update(ctx, bson.NewObjectID(), BlogPatch{Content: &content})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogRepo_UpdateDuplicateSlug(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	author := bson.NewObjectID()
	require.NoError(t, repo.Insert(ctx, testBlog(author, "First", "taken")))
	second := testBlog(author, "Second", "free")
	require.NoError(t, repo.Insert(ctx, second))

	taken := "taken"
	err := repo.Update(ctx, second.ID, BlogPatch{Slug: &taken})
	require.Error(t, err)
	assert.True(t, errs.IsDuplicateKey(err))
}

func TestBlogRepo_LikeMutation(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	blog := testBlog(bson.NewObjectID(), "Liked", "liked")
	require.NoError(t, repo.Insert(ctx, blog))

	alice := bson.NewObjectID()
	bob := bson.NewObjectID()

	count, err := repo.AddLike(ctx, blog.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// $addToSet keeps likes set-valued under repeats.
	count, err = repo.AddLike(ctx, blog.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.AddLike(ctx, blog.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.RemoveLike(ctx, blog.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.RemoveLike(ctx, blog.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = repo.AddLike(ctx, bson.NewObjectID(), alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogRepo_AddComment(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	blog := testBlog(bson.NewObjectID(), "Discussed", "discussed")
	require.NoError(t, repo.Insert(ctx, blog))

	first := models.Comment{ID: "c1", User: bson.NewObjectID(), Content: "first"}
	second := models.Comment{ID: "c2", User: bson.NewObjectID(), Content: "second"}
	require.NoError(t, repo.AddComment(ctx, blog.ID, first))
	require.NoError(t, repo.AddComment(ctx, blog.ID, second))

	stored, err := repo.FindByID(ctx, blog.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 2)
	assert.Equal(t, "c1", stored.Comments[0].ID)
	assert.Equal(t, "c2", stored.Comments[1].ID)

	err = repo.AddComment(ctx, bson.NewObjectID(), first)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogRepo_FindPublished(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	author := bson.NewObjectID()
	for _, slug := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Insert(ctx, testBlog(author, slug, slug)))
	}
	draft := testBlog(author, "Draft", "draft-post")
	draft.Status = models.StatusDraft
	require.NoError(t, repo.Insert(ctx, draft))

	blogs, total, err := repo.FindPublished(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, blogs, 2)

	blogs, _, err = repo.FindPublished(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, blogs, 1)

	for _, blog := range blogs {
		assert.Equal(t, models.StatusPublished, blog.Status)
	}
}

func TestBlogRepo_CountsAndLikeTotals(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	author := bson.NewObjectID()
	other := bson.NewObjectID()

	published := testBlog(author, "Published", "published-post")
	require.NoError(t, repo.Insert(ctx, published))
	draft := testBlog(author, "Draft", "draft-post")
	draft.Status = models.StatusDraft
	require.NoError(t, repo.Insert(ctx, draft))
	require.NoError(t, repo.Insert(ctx, testBlog(other, "Theirs", "theirs")))

	_, err := repo.AddLike(ctx, published.ID, bson.NewObjectID())
	require.NoError(t, err)
	_, err = repo.AddLike(ctx, published.ID, bson.NewObjectID())
	require.NoError(t, err)
	_, err = repo.AddLike(ctx, draft.ID, bson.NewObjectID())
	require.NoError(t, err)

	total, err := repo.CountByAuthor(ctx, author, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	publishedCount, err := repo.CountByAuthor(ctx, author, models.StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, int64(1), publishedCount)

	draftCount, err := repo.CountByAuthor(ctx, author, models.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, int64(1), draftCount)

	likes, err := repo.TotalLikesByAuthor(ctx, author)
	require.NoError(t, err)
	assert.Equal(t, int64(3), likes)

	none, err := repo.TotalLikesByAuthor(ctx, bson.NewObjectID())
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestBlogRepo_Delete(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := db.BlogRepo()

	blog := testBlog(bson.NewObjectID(), "Doomed", "doomed")
	require.NoError(t, repo.Insert(ctx, blog))

	require.NoError(t, repo.Delete(ctx, blog.ID))
	_, err := repo.FindByID(ctx, blog.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Delete(ctx, blog.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
