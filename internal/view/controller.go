package view

import (
	"context"
	"errors"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Create validates input, inserts through the remote store and, on success,
// reconciles locally and signals the other instances exactly once.
// Validation failures never reach the network.
func (v *Instance) Create(ctx context.Context, title, url string) (domain.Bookmark, error) {
	draft, err := domain.NewDraft(title, url)
	if err != nil {
		v.state.setError(domain.MsgInvalidInput)
		return domain.Bookmark{}, err
	}

	if !v.state.beginCreate() {
		return domain.Bookmark{}, ErrCreateInFlight
	}
	defer v.state.endCreate()

	created, err := v.store.Create(ctx, v.owner, draft.Title, draft.URL)
	if err != nil {
		v.state.setError(failureMessage(err, domain.MsgAddFailed))
		v.log.Warn("create failed", logger.Error(err))
		return domain.Bookmark{}, asStoreError(err, domain.MsgAddFailed)
	}

	v.state.clearDraft()
	v.afterMutation(ctx)

	v.log.Info("bookmark created", logger.String("bookmark_id", created.ID))
	return created, nil
}

// Delete removes id from the owner's list. A second call for an id that is
// still in flight on this instance is a no-op. Deleting an id the owner does
// not have succeeds without effect.
func (v *Instance) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		v.state.setError(domain.MsgMissingID)
		return domain.Validation(domain.MsgMissingID)
	}

	if !v.state.beginDelete(id) {
		v.log.Debug("delete already in flight", logger.String("bookmark_id", id))
		return nil
	}
	defer v.state.endDelete(id)

	if err := v.store.Delete(ctx, v.owner, id); err != nil {
		v.state.setError(failureMessage(err, domain.MsgDeleteFailed))
		v.log.Warn("delete failed", logger.String("bookmark_id", id), logger.Error(err))
		return asStoreError(err, domain.MsgDeleteFailed)
	}

	v.afterMutation(ctx)

	v.log.Info("bookmark deleted", logger.String("bookmark_id", id))
	return nil
}

// afterMutation reconciles this instance (unless it was torn down meanwhile)
// and then signals siblings.
func (v *Instance) afterMutation(ctx context.Context) {
	if v.Phase() != TornDown {
		v.Reconcile(ctx)
	}
	v.emit()
}

func asStoreError(err error, msg string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Store(msg, err)
}

// failureMessage keeps the store's own wording for validation and auth
// rejections and uses fallback for everything else.
func failureMessage(err error, fallback string) string {
	if domain.KindOf(err) == domain.KindStore {
		return fallback
	}
	return domain.Message(err, fallback)
}
