package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/inkwell-blog/backend/models"
)

// ErrNotFound is returned when a lookup or targeted write matches no
// document.
var ErrNotFound = errors.New("document not found")

// BlogPatch describes a partial update. Nil pointer fields are left
// untouched; a non-nil Tags slice replaces the stored tags, including
// with an empty set.
type BlogPatch struct {
	Title    *string
	Slug     *string
	Content  *string
	Excerpt  *string
	Status   *string
	ReadTime *int
	Tags     []string
}

// BlogStore is the persistence surface the handlers program against.
// The Mongo implementation below is the production one; tests inject
// in-memory fakes.
type BlogStore interface {
	Insert(ctx context.Context, blog *models.Blog) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Blog, error)
	FindBySlug(ctx context.Context, slug string) (*models.Blog, error)
	FindPublished(ctx context.Context, page, limit int) ([]models.Blog, int64, error)
	FindByAuthor(ctx context.Context, author bson.ObjectID) ([]models.Blog, error)
	SlugTaken(ctx context.Context, slug string, exclude bson.ObjectID) (bool, error)
	Update(ctx context.Context, id bson.ObjectID, patch BlogPatch) error
	Delete(ctx context.Context, id bson.ObjectID) error
	AddLike(ctx context.Context, id, userID bson.ObjectID) (int, error)
	RemoveLike(ctx context.Context, id, userID bson.ObjectID) (int, error)
	AddComment(ctx context.Context, id bson.ObjectID, comment models.Comment) error
	CountByAuthor(ctx context.Context, author bson.ObjectID, status string) (int64, error)
	TotalLikesByAuthor(ctx context.Context, author bson.ObjectID) (int64, error)
}

type BlogRepo struct {
	coll *mongo.Collection
}

func NewBlogRepo(coll *mongo.Collection) *BlogRepo {
	return &BlogRepo{coll: coll}
}

// Insert persists a new blog post, assigning its id and timestamps.
// A duplicate-key error on the slug index is returned as-is so the
// caller can re-suffix and retry.
func (r *BlogRepo) Insert(ctx context.Context, blog *models.Blog) error {
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

	_, err := r.coll.InsertOne(ctx, blog)
	return err
}

func (r *BlogRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Blog, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *BlogRepo) FindBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	return r.findOne(ctx, bson.D{{Key: "slug", Value: slug}})
}

func (r *BlogRepo) findOne(ctx context.Context, filter bson.D) (*models.Blog, error) {
	var blog models.Blog
	if err := r.coll.FindOne(ctx, filter).Decode(&blog); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &blog, nil
}

// FindPublished returns one page of published posts, newest first,
// along with the total published count for pagination.
func (r *BlogRepo) FindPublished(ctx context.Context, page, limit int) ([]models.Blog, int64, error) {
	filter := bson.D{{Key: "status", Value: models.StatusPublished}}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	blogs := []models.Blog{}
	if err := cursor.All(ctx, &blogs); err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

// FindByAuthor returns all of an author's posts regardless of status,
// newest first.
func (r *BlogRepo) FindByAuthor(ctx context.Context, author bson.ObjectID) ([]models.Blog, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.D{{Key: "author", Value: author}}, findOpts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	blogs := []models.Blog{}
	if err := cursor.All(ctx, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

// SlugTaken reports whether any post other than exclude already holds
// the slug. Pass a zero ObjectID on creation.
func (r *BlogRepo) SlugTaken(ctx context.Context, slug string, exclude bson.ObjectID) (bool, error) {
	filter := bson.D{{Key: "slug", Value: slug}}
	if !exclude.IsZero() {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: exclude}}})
	}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update applies a partial update with $set of only the provided
// fields, so likes and comments written concurrently are never
// clobbered by a full-document save.
func (r *BlogRepo) Update(ctx context.Context, id bson.ObjectID, patch BlogPatch) error {
	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}

	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Slug != nil {
		set = append(set, bson.E{Key: "slug", Value: *patch.Slug})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if patch.Excerpt != nil {
		set = append(set, bson.E{Key: "excerpt", Value: *patch.Excerpt})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *patch.Status})
	}
	if patch.ReadTime != nil {
		set = append(set, bson.E{Key: "read_time", Value: *patch.ReadTime})
	}
	if patch.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: patch.Tags})
	}

	result, err := r.coll.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BlogRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddLike adds userID to the likes set with a server-side $addToSet and
// returns the resulting like count. Concurrent likes from different
// users cannot lose each other's update.
func (r *BlogRepo) AddLike(ctx context.Context, id, userID bson.ObjectID) (int, error) {
	return r.mutateLikes(ctx, id, bson.D{{Key: "$addToSet", Value: bson.D{{Key: "likes", Value: userID}}}})
}

// RemoveLike removes userID from the likes set with $pull and returns
// the resulting like count.
func (r *BlogRepo) RemoveLike(ctx context.Context, id, userID bson.ObjectID) (int, error) {
	return r.mutateLikes(ctx, id, bson.D{{Key: "$pull", Value: bson.D{{Key: "likes", Value: userID}}}})
}

func (r *BlogRepo) mutateLikes(ctx context.Context, id bson.ObjectID, update bson.D) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Blog
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return len(updated.Likes), nil
}

// AddComment appends a comment with a server-side $push. Existing
// comments are never touched.
func (r *BlogRepo) AddComment(ctx context.Context, id bson.ObjectID, comment models.Comment) error {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: comment}}}}

	result, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByAuthor counts an author's posts, optionally restricted to a
// status. An empty status counts everything.
func (r *BlogRepo) CountByAuthor(ctx context.Context, author bson.ObjectID, status string) (int64, error) {
	filter := bson.D{{Key: "author", Value: author}}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}
	return r.coll.CountDocuments(ctx, filter)
}

// TotalLikesByAuthor sums like counts across all of an author's posts
// with an aggregation pipeline.
func (r *BlogRepo) TotalLikesByAuthor(ctx context.Context, author bson.ObjectID) (int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "author", Value: author}}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "likeCount", Value: bson.D{{Key: "$size", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}},
			}}}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$likeCount"}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
