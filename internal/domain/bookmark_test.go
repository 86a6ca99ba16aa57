package domain

import (
	"strings"
	"testing"
	"time"
)

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Bookmark{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "b", CreatedAt: base.Add(time.Minute)},
	}

	SortNewestFirst(items)

	got := []string{items[0].ID, items[1].ID, items[2].ID}
	want := []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortNewestFirst() order = %v, want %v", got, want)
		}
	}
	if !IsNewestFirst(items) {
		t.Error("IsNewestFirst() = false after sort")
	}
}

func TestIsNewestFirstDetectsDisorder(t *testing.T) {
	base := time.Now()
	items := []Bookmark{{ID: "old", CreatedAt: base}, {ID: "new", CreatedAt: base.Add(time.Second)}}
	if IsNewestFirst(items) {
		t.Error("IsNewestFirst() = true for ascending slice")
	}
}

func TestNewBookmarkID(t *testing.T) {
	a, err := NewBookmarkID()
	if err != nil {
		t.Fatalf("NewBookmarkID() error = %v", err)
	}
	b, err := NewBookmarkID()
	if err != nil {
		t.Fatalf("NewBookmarkID() error = %v", err)
	}
	if !strings.HasPrefix(a, "bm-") {
		t.Errorf("NewBookmarkID() = %q, want bm- prefix", a)
	}
	if a == b {
		t.Error("NewBookmarkID() returned duplicate ids")
	}
}
