package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps err to its status. Store failures always carry
// fallback so backend details never reach the client.
func writeStoreError(w http.ResponseWriter, err error, fallback string) {
	kind := domain.KindOf(err)
	msg := fallback
	if kind != domain.KindStore {
		msg = domain.Message(err, fallback)
	}
	writeError(w, kind.HTTPStatus(), msg)
}
