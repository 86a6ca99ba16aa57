package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/mw"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const maxBodyBytes = 16 << 10

type listResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type createResponse struct {
	Bookmark domain.Bookmark `json:"bookmark"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// ListBookmarks returns the caller's bookmarks, newest first.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := mw.OwnerFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.MsgUnauthorized)
			return
		}

		items, err := d.Store.List(r.Context(), owner)
		if err != nil {
			d.Logger.Error("list bookmarks failed",
				logger.String("owner", owner),
				logger.Error(err))
			writeStoreError(w, err, domain.MsgLoadFailed)
			return
		}
		if items == nil {
			items = []domain.Bookmark{}
		}

		writeJSON(w, http.StatusOK, listResponse{Bookmarks: items})
	}
}

// CreateBookmark validates and normalizes {title, url} and stores it.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	validate := newValidator()

	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := mw.OwnerFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.MsgUnauthorized)
			return
		}

		var req createBookmarkRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.MsgInvalidPayload)
			return
		}

		if err := validate.Struct(req); err != nil {
			d.Logger.Debug("create payload rejected",
				logger.String("owner", owner),
				logger.String("fields", strings.Join(invalidFields(err), ",")))
			writeError(w, http.StatusBadRequest, domain.MsgInvalidPayload)
			return
		}

		draft, err := domain.NewDraft(req.Title, req.URL)
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.MsgInvalidPayload)
			return
		}

		created, err := d.Store.Create(r.Context(), owner, draft.Title, draft.URL)
		if err != nil {
			d.Logger.Error("create bookmark failed",
				logger.String("owner", owner),
				logger.Error(err))
			writeStoreError(w, err, domain.MsgSaveFailed)
			return
		}

		d.Logger.Info("bookmark created",
			logger.String("owner", owner),
			logger.String("bookmark_id", created.ID))
		writeJSON(w, http.StatusCreated, createResponse{Bookmark: created})
	}
}

// DeleteBookmark removes one of the caller's bookmarks. An id the caller
// does not own is reported as success and left alone.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := mw.OwnerFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.MsgUnauthorized)
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			id = strings.TrimSpace(r.URL.Query().Get("id"))
		}
		if id == "" {
			writeError(w, http.StatusBadRequest, domain.MsgMissingID)
			return
		}

		if err := d.Store.Delete(r.Context(), owner, id); err != nil {
			if errors.Is(err, domain.ErrValidation) {
				writeError(w, http.StatusBadRequest, domain.MsgMissingID)
				return
			}
			d.Logger.Error("delete bookmark failed",
				logger.String("owner", owner),
				logger.String("bookmark_id", id),
				logger.Error(err))
			writeStoreError(w, err, domain.MsgDeleteFailed)
			return
		}

		writeJSON(w, http.StatusOK, deleteResponse{Success: true})
	}
}
