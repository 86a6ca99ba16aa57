package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

type (
	Registrar func(r chi.Router, d deps.Deps)
	// Middleware is built per router so it can read deps.
	Middleware func(d deps.Deps) func(http.Handler) http.Handler
)

type entry struct {
	prefix string
	reg    Registrar
	mws    []Middleware
}

var registry []entry

// Register adds a route group. A non-empty prefix mounts it as a sub-router;
// mws apply to every route of the group.
func Register(prefix string, reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{prefix: prefix, reg: reg, mws: mws})
}

// RegisterAll mounts every registered group. Called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		mount := func(sub chi.Router) {
			for _, m := range e.mws {
				sub.Use(m(d))
			}
			e.reg(sub, d)
		}
		if e.prefix == "" {
			r.Group(mount)
			continue
		}
		r.Route(e.prefix, mount)
	}
}
