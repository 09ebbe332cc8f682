package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/inkwell-blog/backend/database"
	"github.com/inkwell-blog/backend/errs"
	"github.com/inkwell-blog/backend/models"
)

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	blogs     database.BlogStore
}

func newUserHandler(blogs database.BlogStore) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		blogs:     blogs,
	}
}

// stats aggregates the caller's dashboard numbers. The four queries are
// independent, so they fan out concurrently.
func (h userHandler) stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())

		var stats StatsResponse
		g, ctx := errgroup.WithContext(r.Context())

		g.Go(func() error {
			total, err := h.blogs.CountByAuthor(ctx, user.ID, "")
			stats.TotalBlogs = total
			return err
		})
		g.Go(func() error {
			published, err := h.blogs.CountByAuthor(ctx, user.ID, models.StatusPublished)
			stats.PublishedBlogs = published
			return err
		})
		g.Go(func() error {
			drafts, err := h.blogs.CountByAuthor(ctx, user.ID, models.StatusDraft)
			stats.DraftBlogs = drafts
			return err
		})
		g.Go(func() error {
			likes, err := h.blogs.TotalLikesByAuthor(ctx, user.ID)
			stats.TotalLikes = likes
			return err
		})

		if err := g.Wait(); err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("aggregate", "user stats", err))
			return
		}

		h.responder.WriteJSON(w, stats)
	}
}
