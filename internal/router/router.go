// Package router sets up all HTTP routes and middleware chains for the
// Inkwell API. Read endpoints are public; every mutation except the
// newsletter subscription flow requires a bearer token.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/auth"
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
)

// Handlers bundles the handler groups the router wires up.
type Handlers struct {
	Auth       *handlers.Auth
	Categories *handlers.Categories
	Posts      *handlers.Posts
	Tags       *handlers.Tags
	Newsletter *handlers.Newsletter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. The returned rate limiter owns a cleanup
// goroutine; callers stop it on shutdown.
func New(tokens *auth.Tokens, h Handlers) (chi.Router, *middleware.RateLimiter) {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Anonymous write endpoints get per-IP rate limiting.
	limiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check, no auth.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/newsletter/subscribe", h.Newsletter.Subscribe)
		})

		// Public reads.
		r.Get("/categories", h.Categories.List)
		r.Get("/categories/{id}", h.Categories.Get)
		r.Get("/categories/{id}/posts", h.Categories.Posts)

		r.Get("/posts", h.Posts.List)
		r.Get("/posts/slug/{slug}", h.Posts.GetBySlug)
		r.Get("/posts/tag/{tagID}", h.Posts.ListByTag)
		r.Get("/posts/{id}", h.Posts.Get)
		r.Patch("/posts/{id}/views", h.Posts.IncrementViews)

		r.Get("/tags", h.Tags.List)
		r.Get("/tags/popular", h.Tags.Popular)
		r.Get("/tags/slug/{slug}", h.Tags.GetBySlug)
		r.Get("/tags/{id}", h.Tags.Get)
		r.Get("/tags/{id}/posts", h.Tags.Posts)

		r.Post("/newsletter/unsubscribe", h.Newsletter.Unsubscribe)
		r.Get("/newsletter/check/{email}", h.Newsletter.Check)

		// Authenticated area: all mutations plus subscriber listings.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))

			r.Post("/categories", h.Categories.Create)
			r.Put("/categories/{id}", h.Categories.Update)
			r.Delete("/categories/{id}", h.Categories.Delete)

			r.Post("/posts", h.Posts.Create)
			r.Put("/posts/{id}", h.Posts.Update)
			r.Delete("/posts/{id}", h.Posts.Delete)
			r.Put("/posts/{id}/status", h.Posts.UpdateStatus)
			r.Put("/posts/{id}/featured", h.Posts.UpdateFeatured)

			r.Post("/tags", h.Tags.Create)
			r.Put("/tags/{id}", h.Tags.Update)
			r.Delete("/tags/{id}", h.Tags.Delete)
			r.Post("/tags/{id}/posts/{postID}", h.Tags.Associate)
			r.Delete("/tags/{id}/posts/{postID}", h.Tags.Disassociate)

			r.Get("/newsletter/subscribers", h.Newsletter.Subscribers)
			r.Get("/newsletter/stats", h.Newsletter.Stats)
		})
	})

	return r, limiter
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
