package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const readyzTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz answers 503 while the bookmark store is unreachable.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pingStore(r.Context(), d); err != nil {
			d.Logger.Warn("readiness check failed", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: "store unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

func pingStore(ctx context.Context, d deps.Deps) error {
	if d.Pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readyzTimeout)
	defer cancel()
	return d.Pinger.Ping(ctx)
}
