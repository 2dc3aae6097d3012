// Package router sets up all HTTP routes and middleware chains for the
// KasetInfo API. Routes are split into public catalog reads, session
// endpoints, and the authenticated admin group.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kasetinfo/internal/handlers"
	"kasetinfo/internal/middleware"
)

// Deps are the handler groups and shared middleware the router wires.
// Metrics and Sitemap may be nil, in which case the routes are not mounted.
type Deps struct {
	Sessions middleware.SessionLoader
	Public   *handlers.Public
	Admin    *handlers.Admin
	Auth     *handlers.Auth
	Sitemap  http.Handler
	Metrics  http.Handler

	// LoginLimiter throttles sign-in attempts; RefreshLimiter throttles
	// catalog refetches. Either may be nil.
	LoginLimiter   *middleware.RateLimiter
	RefreshLimiter *middleware.RateLimiter

	// SecureCookies marks the CSRF cookie Secure (behind TLS).
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	r.Get("/health", healthHandler)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.Sitemap != nil {
		r.Method(http.MethodGet, "/sitemap.xml", d.Sitemap)
	}

	r.Route("/api", func(r chi.Router) {
		// Catalog reads.
		r.Get("/items", d.Public.List)
		r.Get("/items/{id}", d.Public.Detail)
		r.Get("/all-stories", d.Public.AllStories)
		r.Get("/catalog/status", d.Public.Status)
		r.With(limit(d.RefreshLimiter)).Post("/catalog/refresh", d.Public.Refresh)
		r.Get("/{section}", d.Public.Section)

		csrf := middleware.NewCSRF(d.SecureCookies)

		r.Route("/auth", func(r chi.Router) {
			r.Use(csrf)
			r.With(limit(d.LoginLimiter)).Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)
			r.Get("/session", d.Auth.Session)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/2fa/setup", d.Auth.TwoFASetup)
				r.Post("/2fa/enable", d.Auth.TwoFAEnable)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(csrf)
			r.Get("/", d.Auth.AdminPage)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/items", d.Admin.CreateItem)
				r.Patch("/items/{id}", d.Admin.UpdateItem)
				r.Post("/images", d.Admin.UploadImage)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":"not found"}`)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, `{"error":"method not allowed"}`)
	})

	return r
}

// limit returns rl's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, `{"status":"ok"}`)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body + "\n"))
}
