package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// setupRoutes mounts the full API surface under /api.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Route("/api", func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		responder := NewResponder(log.With().Str("handlerName", "health").Logger())
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			responder.WriteJSON(w, map[string]string{"message": "Blog API is running"})
		})

		r.Post("/auth/register", handlers.authHandler.register())
		r.Post("/auth/login", handlers.authHandler.login())

		// Public reads; identity is resolved when a token is present so
		// draft visibility can be decided per caller.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.identify)

			r.Get("/blogs", handlers.blogHandler.listBlogs())
			r.Get("/blogs/{slug}", handlers.blogHandler.getBlog())
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Get("/auth/me", handlers.authHandler.me())

			r.Post("/blogs", handlers.blogHandler.createBlog())
			r.Put("/blogs/{blogID}", handlers.blogHandler.updateBlog())
			r.Delete("/blogs/{blogID}", handlers.blogHandler.deleteBlog())
			r.Post("/blogs/{blogID}/like", handlers.blogHandler.toggleLike())
			r.Post("/blogs/{blogID}/comments", handlers.blogHandler.addComment())
			r.Get("/blogs/user/my-blogs", handlers.blogHandler.myBlogs())

			r.Get("/users/stats", handlers.userHandler.stats())
		})
	})
}
