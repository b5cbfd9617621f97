// Package router sets up all HTTP routes and middleware chains for the
// Inkwell API. Routes are grouped into public reads, signed-in actions
// and the two dashboards; authorization beyond "signed in" is decided by
// the blog service, not by the router.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/session"
)

// Deps holds everything the router wires together.
type Deps struct {
	// Sessions may be nil, in which case callers are only identified by
	// the fallback cookie.
	Sessions       *session.Store
	UserIDFallback bool
	SecureCookies  bool

	// Auth may be nil to disable the sign-in routes.
	Auth  *handlers.Auth
	Blog  *handlers.Blog
	Media *handlers.Media

	// CodeLimiter throttles the sign-in code endpoints. May be nil.
	CodeLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NewSecureHeaders(d.SecureCookies))
	r.Use(middleware.LoadSession(d.Sessions, d.UserIDFallback))
	r.Use(middleware.Logger)

	// Health check, no auth, no CSRF.
	r.Get("/health", healthHandler)

	// File view URLs handed out for uploads.
	r.Get("/storage/buckets/{bucket}/files/{fileId}/view", d.Media.View)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.SecureCookies))

		if d.Auth != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					if d.CodeLimiter != nil {
						r.Use(d.CodeLimiter.Middleware)
					}
					r.Post("/otp", d.Auth.RequestCode)
					r.Post("/otp/verify", d.Auth.VerifyCode)
					r.Post("/totp/verify", d.Auth.VerifyTOTP)
				})
				r.Post("/logout", d.Auth.Logout)
				r.Get("/me", d.Auth.Me)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Post("/totp/setup", d.Auth.BeginTOTP)
					r.Post("/totp/enable", d.Auth.EnableTOTP)
				})
			})
		}

		// Public reads. {ref} is a slug on the bare post route and a post
		// id on its sub-resources.
		r.Get("/posts", d.Blog.Feed)
		r.Get("/posts/{ref}", d.Blog.PublishedPost)
		r.Get("/posts/{ref}/likes", d.Blog.Likes)
		r.Get("/posts/{ref}/comments", d.Blog.Comments)
		r.Get("/categories", d.Blog.Categories)
		r.Get("/profiles/{id}", d.Blog.Profile)

		// Signed-in actions.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/posts/{ref}/likes", d.Blog.ToggleLike)
			r.Post("/posts/{ref}/comments", d.Blog.AddComment)
			r.Put("/comments/{id}", d.Blog.EditComment)
			r.Delete("/comments/{id}", d.Blog.DeleteComment)

			r.Post("/categories", d.Blog.CreateCategory)
			r.Put("/categories/{id}", d.Blog.UpdateCategory)
			r.Delete("/categories/{id}", d.Blog.DeleteCategory)

			r.Get("/profile", d.Blog.MyProfile)
			r.Post("/profile", d.Blog.CreateProfile)
			r.Put("/profile", d.Blog.UpdateProfile)

			r.Post("/uploads", d.Media.Upload)

			// Author dashboard
			r.Route("/me/posts", func(r chi.Router) {
				r.Get("/", d.Blog.MyPosts)
				r.Post("/", d.Blog.CreatePost)
				r.Get("/{id}", d.Blog.GetPost)
				r.Put("/{id}", d.Blog.UpdateMyPost)
				r.Delete("/{id}", d.Blog.DeletePost)
				r.Post("/{id}/status", d.Blog.SetStatus)
			})

			// Admin dashboard
			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", d.Blog.Stats)
				r.Get("/posts", d.Blog.ModerationQueue)
				r.Put("/posts/{id}", d.Blog.UpdatePost)
				r.Post("/posts/{id}/approve", d.Blog.Approve)
				r.Post("/posts/{id}/reject", d.Blog.Reject)
				r.Post("/posts/{id}/status", d.Blog.SetStatus)
				r.Delete("/posts/{id}", d.Blog.DeletePost)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
