package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	OpenFeeds     int64   `json:"open_feeds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz reports liveness without touching the store. Once shutdown has
// begun it answers 503 "stopping" so balancers drain the instance.
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if stopping(d.Shutdown) {
			status, code = "stopping", http.StatusServiceUnavailable
		}

		resp := healthzResponse{
			Status:        status,
			UptimeSeconds: d.TimeNow().Sub(d.StartTime).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
		}
		if d.Feeds != nil {
			resp.OpenFeeds = d.Feeds.Active()
		}
		writeJSON(w, code, resp)
	}
}

func stopping(ch <-chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
