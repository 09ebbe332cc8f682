package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/inkwell-blog/backend/database"
	"github.com/inkwell-blog/backend/errs"
	"github.com/inkwell-blog/backend/models"
	"github.com/inkwell-blog/backend/services"
)

// Length limits are counted in characters, not bytes.
const (
	maxTitleLength   = 200
	maxExcerptLength = 300
	maxCommentLength = 1000
	defaultPageSize  = 10
)

type blogHandler struct {
	responder Responder
	logger    zerolog.Logger
	blogs     database.BlogStore
	users     database.UserStore
}

func newBlogHandler(blogs database.BlogStore, users database.UserStore) blogHandler {
	logger := log.With().Str("handlerName", "blogHandler").Logger()

	return blogHandler{
		responder: NewResponder(logger),
		logger:    logger,
		blogs:     blogs,
		users:     users,
	}
}

type createBlogRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Excerpt string   `json:"excerpt"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
}

// updateBlogRequest carries a partial update. Blank strings keep the
// stored value; a present tags array replaces the stored one, empty
// included.
type updateBlogRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Excerpt string   `json:"excerpt"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// listBlogs returns one page of published posts, newest first.
func (h blogHandler) listBlogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit < 1 {
			limit = defaultPageSize
		}

		blogs, total, err := h.blogs.FindPublished(r.Context(), page, limit)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "blogs", err))
			return
		}

		userByID, err := h.resolveUsers(r.Context(), blogs)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "blog authors", err))
			return
		}

		responses := make([]BlogResponse, 0, len(blogs))
		for i := range blogs {
			responses = append(responses, newBlogResponse(&blogs[i], userByID))
		}

		totalPages := (total + int64(limit) - 1) / int64(limit)
		h.responder.WriteJSON(w, BlogListResponse{
			Blogs:       responses,
			TotalPages:  totalPages,
			CurrentPage: page,
			Total:       total,
		})
	}
}

// getBlog returns a single post by slug. Draft posts are visible only
// to their author or an admin; everyone else sees a 404 so draft slugs
// do not leak.
func (h blogHandler) getBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing slug"))
			return
		}

		blog, err := h.blogs.FindBySlug(r.Context(), slug)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}

		if !services.CanViewDraft(blog, ctxGetUser(r.Context())) {
			h.responder.WriteError(w, errs.NewNotFoundError("blog not found"))
			return
		}

		userByID, err := h.resolveUsers(r.Context(), []models.Blog{*blog})
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "blog authors", err))
			return
		}

		h.responder.WriteJSON(w, newBlogResponse(blog, userByID))
	}
}

// createBlog validates the payload, derives slug and metadata, and
// inserts the post. A duplicate-slug conflict on insert gets exactly
// one retry with a re-suffixed slug; the unique index is what actually
// guarantees slug uniqueness under concurrent creation.
func (h blogHandler) createBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		var req createBlogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode blog request body")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if err := validateCreate(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		status := req.Status
		if status == "" {
			status = models.StatusPublished
		}

		slug, err := services.DeriveSlug(r.Context(), req.Title, h.slugLookup(bson.ObjectID{}))
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("check slug for", "blog", err))
			return
		}

		blog := &models.Blog{
			Title:    req.Title,
			Slug:     slug,
			Content:  req.Content,
			Excerpt:  services.DeriveExcerpt(req.Content, req.Excerpt),
			Author:   user.ID,
			Status:   status,
			Tags:     services.NormalizeTags(req.Tags),
			ReadTime: services.DeriveReadTime(req.Content),
		}

		if err := h.blogs.Insert(r.Context(), blog); err != nil {
			if !errs.IsDuplicateKey(err) {
				h.responder.WriteError(w, errs.NewDatabaseError("create", "blog", err))
				return
			}
			// Lost the race for the slug; one retry with a fresh suffix.
			blog.ID = bson.ObjectID{}
			blog.Slug = services.ResuffixSlug(services.Slugify(req.Title))
			if err := h.blogs.Insert(r.Context(), blog); err != nil {
				h.responder.WriteError(w, errs.NewDatabaseError("create", "blog", err))
				return
			}
		}

		h.responder.WriteCreated(w, newBlogResponse(blog, map[bson.ObjectID]models.AuthorSummary{
			user.ID: user.Summary(),
		}))
	}
}

// updateBlog applies a partial update with owner-or-admin
// authorization. The slug is recomputed only when the title actually
// changes, so URLs stay stable across content edits.
func (h blogHandler) updateBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		blogID, ok := h.parseBlogID(w, r)
		if !ok {
			return
		}

		blog, err := h.blogs.FindByID(r.Context(), blogID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}

		if !services.CanMutate(blog, user) {
			h.responder.WriteError(w, errs.NewForbiddenError("not authorized to modify this blog"))
			return
		}

		var req updateBlogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode blog request body")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		patch, err := h.buildPatch(r.Context(), blog, req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.blogs.Update(r.Context(), blogID, patch); err != nil {
			if errs.IsDuplicateKey(err) && patch.Slug != nil {
				// Slug race on a title change; one retry with a fresh suffix.
				resuffixed := services.ResuffixSlug(services.Slugify(req.Title))
				patch.Slug = &resuffixed
				err = h.blogs.Update(r.Context(), blogID, patch)
			}
			if err != nil {
				h.writeLookupError(w, err)
				return
			}
		}

		updated, err := h.blogs.FindByID(r.Context(), blogID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}

		userByID, err := h.resolveUsers(r.Context(), []models.Blog{*updated})
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "blog authors", err))
			return
		}

		h.responder.WriteJSON(w, newBlogResponse(updated, userByID))
	}
}

// buildPatch turns an update request into a sparse patch, deriving
// slug, read time and excerpt per the metadata rules.
func (h blogHandler) buildPatch(ctx context.Context, blog *models.Blog, req updateBlogRequest) (database.BlogPatch, error) {
	var patch database.BlogPatch

	if req.Title != "" && req.Title != blog.Title {
		if utf8.RuneCountInString(req.Title) > maxTitleLength {
			return patch, errs.NewValidationError("title", "title must be at most 200 characters")
		}
		patch.Title = &req.Title

		slug, err := services.DeriveSlug(ctx, req.Title, h.slugLookup(blog.ID))
		if err != nil {
			return patch, errs.NewDatabaseError("check slug for", "blog", err)
		}
		patch.Slug = &slug
	}

	if req.Excerpt != "" && utf8.RuneCountInString(req.Excerpt) > maxExcerptLength {
		return patch, errs.NewValidationError("excerpt", "excerpt must be at most 300 characters")
	}

	if req.Content != "" {
		patch.Content = &req.Content
		readTime := services.DeriveReadTime(req.Content)
		patch.ReadTime = &readTime

		excerpt := services.DeriveExcerpt(req.Content, req.Excerpt)
		patch.Excerpt = &excerpt
	} else if req.Excerpt != "" {
		patch.Excerpt = &req.Excerpt
	}

	if req.Status != "" {
		if req.Status != models.StatusDraft && req.Status != models.StatusPublished {
			return patch, errs.NewValidationError("status", "status must be draft or published")
		}
		patch.Status = &req.Status
	}

	if req.Tags != nil {
		patch.Tags = services.NormalizeTags(req.Tags)
	}

	return patch, nil
}

// deleteBlog removes a post outright with owner-or-admin authorization.
// Likes and comments are embedded, so nothing dangles.
func (h blogHandler) deleteBlog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		blogID, ok := h.parseBlogID(w, r)
		if !ok {
			return
		}

		blog, err := h.blogs.FindByID(r.Context(), blogID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}

		if !services.CanMutate(blog, user) {
			h.responder.WriteError(w, errs.NewForbiddenError("not authorized to delete this blog"))
			return
		}

		if err := h.blogs.Delete(r.Context(), blogID); err != nil {
			h.writeLookupError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"message": "blog deleted successfully",
		})
	}
}

// toggleLike adds or removes the caller from the likes set. Both paths
// go through atomic array operators, so concurrent likes from distinct
// users never lose an update.
func (h blogHandler) toggleLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		blogID, ok := h.parseBlogID(w, r)
		if !ok {
			return
		}

		blog, err := h.blogs.FindByID(r.Context(), blogID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}

		var likes int
		liked := !blog.LikedBy(user.ID)
		if liked {
			likes, err = h.blogs.AddLike(r.Context(), blogID, user.ID)
		} else {
			likes, err = h.blogs.RemoveLike(r.Context(), blogID, user.ID)
		}
		if err != nil {
			h.writeLookupError(w, err)
			return
		}

		h.responder.WriteJSON(w, LikeResponse{Likes: likes, Liked: liked})
	}
}

// addComment appends a comment with a server-assigned id and timestamp.
func (h blogHandler) addComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		blogID, ok := h.parseBlogID(w, r)
		if !ok {
			return
		}

		var req addCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if req.Content == "" {
			h.responder.WriteError(w, errs.NewValidationError("content", "comment content is required"))
			return
		}
		if utf8.RuneCountInString(req.Content) > maxCommentLength {
			h.responder.WriteError(w, errs.NewValidationError("content", "comment must be at most 1000 characters"))
			return
		}

		comment := models.Comment{
			ID:        uuid.NewString(),
			User:      user.ID,
			Content:   req.Content,
			CreatedAt: time.Now().UTC(),
		}

		if err := h.blogs.AddComment(r.Context(), blogID, comment); err != nil {
			h.writeLookupError(w, err)
			return
		}

		h.responder.WriteCreated(w, CommentResponse{
			ID:        comment.ID,
			User:      user.Summary(),
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		})
	}
}

// myBlogs returns all of the caller's posts, drafts included.
func (h blogHandler) myBlogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		blogs, err := h.blogs.FindByAuthor(r.Context(), user.ID)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "blogs", err))
			return
		}

		userByID, err := h.resolveUsers(r.Context(), blogs)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "blog authors", err))
			return
		}
		userByID[user.ID] = user.Summary()

		responses := make([]BlogResponse, 0, len(blogs))
		for i := range blogs {
			responses = append(responses, newBlogResponse(&blogs[i], userByID))
		}

		h.responder.WriteJSON(w, responses)
	}
}

// slugLookup adapts the blog store to the engine's lookup callback,
// excluding the post being updated from the uniqueness check.
func (h blogHandler) slugLookup(exclude bson.ObjectID) services.SlugLookup {
	return func(ctx context.Context, slug string) (bool, error) {
		return h.blogs.SlugTaken(ctx, slug, exclude)
	}
}

// resolveUsers loads author and comment-user summaries for a batch of
// posts in a single query.
func (h blogHandler) resolveUsers(ctx context.Context, blogs []models.Blog) (map[bson.ObjectID]models.AuthorSummary, error) {
	seen := make(map[bson.ObjectID]bool)
	ids := make([]bson.ObjectID, 0, len(blogs))
	for i := range blogs {
		if !seen[blogs[i].Author] {
			seen[blogs[i].Author] = true
			ids = append(ids, blogs[i].Author)
		}
		for _, comment := range blogs[i].Comments {
			if !seen[comment.User] {
				seen[comment.User] = true
				ids = append(ids, comment.User)
			}
		}
	}

	users, err := h.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	userByID := make(map[bson.ObjectID]models.AuthorSummary, len(users))
	for i := range users {
		userByID[users[i].ID] = users[i].Summary()
	}
	return userByID, nil
}

func (h blogHandler) parseBlogID(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	blogIDStr := chi.URLParam(r, "blogID")
	if blogIDStr == "" {
		h.responder.WriteError(w, errs.NewBadRequestError("missing blogID"))
		return bson.ObjectID{}, false
	}

	blogID, err := bson.ObjectIDFromHex(blogIDStr)
	if err != nil {
		h.responder.WriteError(w, errs.NewBadRequestError("invalid blogID"))
		return bson.ObjectID{}, false
	}
	return blogID, true
}

// writeLookupError maps store errors on a targeted read or write.
func (h blogHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrNotFound) {
		h.responder.WriteError(w, errs.NewNotFoundError("blog not found"))
		return
	}
	h.responder.WriteError(w, errs.NewDatabaseError("access", "blog", err))
}

func validateCreate(req createBlogRequest) error {
	if req.Title == "" {
		return errs.NewValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(req.Title) > maxTitleLength {
		return errs.NewValidationError("title", "title must be at most 200 characters")
	}
	if req.Content == "" {
		return errs.NewValidationError("content", "content is required")
	}
	if utf8.RuneCountInString(req.Excerpt) > maxExcerptLength {
		return errs.NewValidationError("excerpt", "excerpt must be at most 300 characters")
	}
	if req.Status != "" && req.Status != models.StatusDraft && req.Status != models.StatusPublished {
		return errs.NewValidationError("status", "status must be draft or published")
	}
	return nil
}
