package view

import (
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

func TestStateReplaceItemsIsWholesale(t *testing.T) {
	s := newState([]domain.Bookmark{{ID: "a"}, {ID: "b"}}, "")

	s.replaceItems([]domain.Bookmark{{ID: "c"}}, time.Unix(10, 0))

	snap := s.snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "c" {
		t.Errorf("items = %+v, want only c", snap.Items)
	}
	if !snap.LastReconcile.Equal(time.Unix(10, 0)) {
		t.Errorf("LastReconcile = %v", snap.LastReconcile)
	}
}

func TestStateSnapshotIsACopy(t *testing.T) {
	s := newState([]domain.Bookmark{{ID: "a"}}, "")

	snap := s.snapshot()
	snap.Items[0].ID = "mutated"

	if s.snapshot().Items[0].ID != "a" {
		t.Error("snapshot shares backing array with state")
	}
}

func TestStateDeleteMarker(t *testing.T) {
	s := newState(nil, "old error")

	if !s.beginDelete("x") {
		t.Fatal("beginDelete(x) refused on idle state")
	}
	if s.snapshot().LastError != "" {
		t.Error("beginDelete did not clear lastError")
	}
	if s.beginDelete("x") {
		t.Error("beginDelete(x) accepted twice")
	}
	if !s.beginDelete("y") {
		t.Fatal("beginDelete(y) refused")
	}

	s.endDelete("x")
	if got := s.snapshot().PendingDeleteID; got != "y" {
		t.Errorf("endDelete(x) cleared marker owned by y, got %q", got)
	}
	s.endDelete("y")
	if got := s.snapshot().PendingDeleteID; got != "" {
		t.Errorf("PendingDeleteID = %q, want empty", got)
	}
}

func TestStateCreateMarker(t *testing.T) {
	s := newState(nil, "")

	if !s.beginCreate() {
		t.Fatal("beginCreate refused")
	}
	if s.beginCreate() {
		t.Error("beginCreate accepted while pending")
	}
	s.endCreate()
	if s.snapshot().PendingCreate {
		t.Error("PendingCreate still set")
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		Idle:       "idle",
		Subscribed: "subscribed",
		TornDown:   "torn_down",
		Phase(9):   "phase(9)",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}
