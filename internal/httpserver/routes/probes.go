package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
)

func init() { Register("", registerProbes) }

// registerProbes mounts the health endpoints. Liveness is open; readiness
// and the infra report touch the store and are CIDR restricted.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	restricted := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	restricted.Get("/readyz", handlers.Readyz(d))
	restricted.Get("/infra", handlers.Infra(d))
}
