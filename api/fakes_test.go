package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/inkwell-blog/backend/database"
	"github.com/inkwell-blog/backend/errs"
	"github.com/inkwell-blog/backend/models"
)

// fakeBlogStore is an in-memory BlogStore honoring the same semantics
// as the Mongo repo: slug uniqueness on insert, sparse patches, and
// set-behaving like mutation.
type fakeBlogStore struct {
	mu    sync.Mutex
	blogs map[bson.ObjectID]*models.Blog

	// when true, SlugTaken lies and reports every slug as free, to
	// simulate two creators racing past the pre-check.
	slugCheckLies bool
}

func newFakeBlogStore() *fakeBlogStore {
	return &fakeBlogStore{blogs: make(map[bson.ObjectID]*models.Blog)}
}

func (f *fakeBlogStore) Insert(_ context.Context, blog *models.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.blogs {
		if existing.Slug == blog.Slug {
			return fmt.Errorf("slug %q: %w", blog.Slug, errs.ErrDuplicateKey)
		}
	}

	if blog.ID.IsZero() {
		blog.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	if blog.Likes == nil {
		blog.Likes = []bson.ObjectID{}
	}
	if blog.Comments == nil {
		blog.Comments = []models.Comment{}
	}
	if blog.Tags == nil {
		blog.Tags = []string{}
	}

	stored := *blog
	f.blogs[blog.ID] = &stored
	return nil
}

func (f *fakeBlogStore) FindByID(_ context.Context, id bson.ObjectID) (*models.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	blog, ok := f.blogs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *blog
	return &copied, nil
}

func (f *fakeBlogStore) FindBySlug(_ context.Context, slug string) (*models.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, blog := range f.blogs {
		if blog.Slug == slug {
			copied := *blog
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeBlogStore) FindPublished(_ context.Context, page, limit int) ([]models.Blog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	published := []models.Blog{}
	for _, blog := range f.blogs {
		if blog.Status == models.StatusPublished {
			published = append(published, *blog)
		}
	}
	sort.Slice(published, func(i, j int) bool {
		return published[i].CreatedAt.After(published[j].CreatedAt)
	})

	total := int64(len(published))
	start := (page - 1) * limit
	if start >= len(published) {
		return []models.Blog{}, total, nil
	}
	end := start + limit
	if end > len(published) {
		end = len(published)
	}
	return published[start:end], total, nil
}

func (f *fakeBlogStore) FindByAuthor(_ context.Context, author bson.ObjectID) ([]models.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	mine := []models.Blog{}
	for _, blog := range f.blogs {
		if blog.Author == author {
			mine = append(mine, *blog)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	return mine, nil
}

func (f *fakeBlogStore) SlugTaken(_ context.Context, slug string, exclude bson.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.slugCheckLies {
		return false, nil
	}
	for _, blog := range f.blogs {
		if blog.Slug == slug && blog.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlogStore) Update(_ context.Context, id bson.ObjectID, patch database.BlogPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	blog, ok := f.blogs[id]
	if !ok {
		return database.ErrNotFound
	}

	if patch.Slug != nil {
		for _, other := range f.blogs {
			if other.ID != id && other.Slug == *patch.Slug {
				return fmt.Errorf("slug %q: %w", *patch.Slug, errs.ErrDuplicateKey)
			}
		}
		blog.Slug = *patch.Slug
	}
	if patch.Title != nil {
		blog.Title = *patch.Title
	}
	if patch.Content != nil {
		blog.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		blog.Excerpt = *patch.Excerpt
	}
	if patch.Status != nil {
		blog.Status = *patch.Status
	}
	if patch.ReadTime != nil {
		blog.ReadTime = *patch.ReadTime
	}
	if patch.Tags != nil {
		blog.Tags = patch.Tags
	}
	blog.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeBlogStore) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.blogs[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.blogs, id)
	return nil
}

func (f *fakeBlogStore) AddLike(_ context.Context, id, userID bson.ObjectID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	blog, ok := f.blogs[id]
	if !ok {
		return 0, database.ErrNotFound
	}
	if !blog.LikedBy(userID) {
		blog.Likes = append(blog.Likes, userID)
	}
	return len(blog.Likes), nil
}

func (f *fakeBlogStore) RemoveLike(_ context.Context, id, userID bson.ObjectID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	blog, ok := f.blogs[id]
	if !ok {
		return 0, database.ErrNotFound
	}
	kept := blog.Likes[:0]
	for _, likeID := range blog.Likes {
		if likeID != userID {
			kept = append(kept, likeID)
		}
	}
	blog.Likes = kept
	return len(blog.Likes), nil
}

func (f *fakeBlogStore) AddComment(_ context.Context, id bson.ObjectID, comment models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	blog, ok := f.blogs[id]
	if !ok {
		return database.ErrNotFound
	}
	blog.Comments = append(blog.Comments, comment)
	return nil
}

func (f *fakeBlogStore) CountByAuthor(_ context.Context, author bson.ObjectID, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, blog := range f.blogs {
		if blog.Author == author && (status == "" || blog.Status == status) {
			count++
		}
	}
	return count, nil
}

func (f *fakeBlogStore) TotalLikesByAuthor(_ context.Context, author bson.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total int64
	for _, blog := range f.blogs {
		if blog.Author == author {
			total += int64(len(blog.Likes))
		}
	}
	return total, nil
}

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[bson.ObjectID]*models.User)}
}

func (f *fakeUserStore) Insert(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return fmt.Errorf("user %q: %w", user.Username, errs.ErrDuplicateKey)
		}
	}

	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserStore) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.Email == email || user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUserStore) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	found := []models.User{}
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			found = append(found, *user)
		}
	}
	return found, nil
}
