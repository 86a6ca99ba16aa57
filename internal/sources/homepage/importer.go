package homepage

import (
	"context"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

// Creator adds one bookmark. A view instance satisfies it.
type Creator interface {
	Create(ctx context.Context, title, url string) (domain.Bookmark, error)
}

// Result summarizes an import run.
type Result struct {
	Created    int
	Duplicates int
	Invalid    int
	Failed     int
}

// Importer submits entries one at a time, skipping links the owner already
// has and links repeated within the file.
type Importer struct {
	creator Creator
	log     logger.Logger
}

func NewImporter(creator Creator, log logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{creator: creator, log: log}
}

// Import stops early only when ctx is done. Individual failures are logged
// and counted.
func (im *Importer) Import(ctx context.Context, entries []Entry, existing []domain.Bookmark) (Result, error) {
	var res Result

	seen := make(map[string]struct{}, len(existing)+len(entries))
	for _, b := range existing {
		seen[b.URL] = struct{}{}
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		draft, err := domain.NewDraft(e.Title, e.URL)
		if err != nil {
			res.Invalid++
			im.log.Warn("skipping invalid entry",
				logger.String("title", e.Title),
				logger.String("url", e.URL))
			continue
		}
		if _, dup := seen[draft.URL]; dup {
			res.Duplicates++
			continue
		}

		if _, err := im.creator.Create(ctx, draft.Title, draft.URL); err != nil {
			res.Failed++
			im.log.Warn("import create failed",
				logger.String("url", draft.URL),
				logger.Error(err))
			continue
		}
		seen[draft.URL] = struct{}{}
		res.Created++
	}

	im.log.Info("import finished",
		logger.Int("created", res.Created),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("invalid", res.Invalid),
		logger.Int("failed", res.Failed))
	return res, nil
}
