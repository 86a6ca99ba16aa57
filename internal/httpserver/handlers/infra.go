package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend,omitempty"`
	Active  *int64 `json:"active,omitempty"`
	Total   *int64 `json:"total,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the store and change feed state.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store": checkStore(r, d),
			"feed":  feedStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		})
	}
}

// determineSyncMode: "live" when the store answers, "critical" otherwise.
// Without the store neither reads nor the remote feed work; same-device
// channels still do.
func determineSyncMode(components map[string]componentStatus) string {
	if store, ok := components["store"]; ok && !store.OK {
		return "critical"
	}
	return "live"
}

func checkStore(r *http.Request, d deps.Deps) componentStatus {
	status := componentStatus{OK: true, Backend: d.StoreKind}
	if err := pingStore(r.Context(), d); err != nil {
		status.OK = false
		status.Impact = "reads-writes-and-remote-feed-down"
		status.Error = "unreachable"
	}
	return status
}

func feedStatus(d deps.Deps) componentStatus {
	if d.Feeds == nil {
		return componentStatus{OK: true}
	}
	active, total := d.Feeds.Active(), d.Feeds.Total()
	return componentStatus{OK: true, Active: &active, Total: &total}
}
