package homepage

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

type fakeCreator struct {
	created []domain.Draft
	failOn  string
}

func (f *fakeCreator) Create(_ context.Context, title, url string) (domain.Bookmark, error) {
	if url == f.failOn {
		return domain.Bookmark{}, domain.Store(domain.MsgAddFailed, errors.New("boom"))
	}
	f.created = append(f.created, domain.Draft{Title: title, URL: url})
	return domain.Bookmark{ID: "x", Title: title, URL: url}, nil
}

func TestImport(t *testing.T) {
	entries := []Entry{
		{Title: "Go", URL: "go.dev"},
		{Title: "Go again", URL: "https://GO.dev"},
		{Title: "", URL: "https://empty.title/"},
		{Title: "Known", URL: "https://known.example/"},
		{Title: "Broken", URL: "https://broken.example/"},
		{Title: "Docs", URL: "https://pkg.go.dev/std"},
	}
	existing := []domain.Bookmark{{ID: "k", URL: "https://known.example/"}}
	creator := &fakeCreator{failOn: "https://broken.example/"}

	res, err := NewImporter(creator, nil).Import(context.Background(), entries, existing)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	want := Result{Created: 2, Duplicates: 2, Invalid: 1, Failed: 1}
	if res != want {
		t.Errorf("Import() = %+v, want %+v", res, want)
	}
	if len(creator.created) != 2 || creator.created[0].URL != "https://go.dev/" {
		t.Errorf("created = %+v", creator.created)
	}
}

func TestImportStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	creator := &fakeCreator{}
	_, err := NewImporter(creator, nil).Import(ctx, []Entry{{Title: "Go", URL: "go.dev"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Import() error = %v, want context.Canceled", err)
	}
	if len(creator.created) != 0 {
		t.Error("Import() created entries after cancel")
	}
}
