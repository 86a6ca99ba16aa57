package view

import (
	"context"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Reconcile refetches the full list and replaces the local one wholesale.
// On failure the previous items stay and LastError says the refresh failed.
// Overlapping calls are independent; whichever finishes last wins.
func (v *Instance) Reconcile(ctx context.Context) {
	items, err := v.store.List(ctx, v.owner)

	if v.Phase() == TornDown {
		return
	}

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		v.log.Warn("refresh failed, keeping previous list", logger.Error(err))
		v.state.setError(domain.MsgRefreshFailed)
		return
	}

	v.state.replaceItems(items, v.now())
	v.log.Debug("reconciled", logger.Int("items", len(items)))
}
