package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() {
	Register("/api/bookmarks", registerBookmarks, enforceHost, authenticate)
}

func enforceHost(d deps.Deps) func(http.Handler) http.Handler {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}

func authenticate(d deps.Deps) func(http.Handler) http.Handler {
	return mw.Authenticate(d.Tokens, d.Logger)
}

func registerBookmarks(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		RPS:        d.RateLimitRPS,
		Burst:      d.RateLimitBurst,
		MaxEntries: 10000,
		TrustProxy: d.TrustProxy,
	})

	// The feed outlives any request timeout.
	r.Get("/feed", handlers.Feed(d))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.RequestTimeout))

		r.Get("/", handlers.ListBookmarks(d))
		r.With(limit).Post("/", handlers.CreateBookmark(d))
		r.With(limit).Delete("/", handlers.DeleteBookmark(d))
		r.With(limit).Delete("/{id}", handlers.DeleteBookmark(d))
	})
}
