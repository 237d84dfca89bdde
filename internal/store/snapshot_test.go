package store

import (
	"errors"
	"testing"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	s := setupTestStore(t)

	s.Insert("DOWN", "2024-01-01T00:00:00Z")
	s.Insert("UP", "2024-01-01T00:05:00Z")
	s.Insert("DOWN", "2024-01-02T12:30:00Z")

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("snapshot should not be empty")
	}

	restored, err := Open(data)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer restored.Close()

	want, _ := s.All(OrderAsc)
	got, err := restored.All(OrderAsc)
	if err != nil {
		t.Fatalf("query restored: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("restored count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("restored[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	// The next assigned id must be identical after the round-trip.
	if restored.LastID() != s.LastID() {
		t.Errorf("restored last id = %d, want %d", restored.LastID(), s.LastID())
	}
	id, err := restored.Insert("UP", "2024-01-03T00:00:00Z")
	if err != nil {
		t.Fatalf("insert into restored: %v", err)
	}
	if id != 4 {
		t.Errorf("next id = %d, want 4", id)
	}
}

func TestSnapshot_EmptyImageYieldsEmptyStore(t *testing.T) {
	s, err := Open(nil)
	if err != nil {
		t.Fatalf("open nil snapshot: %v", err)
	}
	defer s.Close()

	count, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if s.LastID() != 0 {
		t.Errorf("last id = %d, want 0", s.LastID())
	}
}

func TestSnapshot_CorruptImage(t *testing.T) {
	_, err := Open([]byte("this is not a sqlite database at all"))
	if err == nil {
		t.Fatal("opening a corrupt snapshot should fail")
	}
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("error = %v, want ErrCorruptSnapshot", err)
	}
}

func TestSnapshot_EmptyStoreRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored, err := Open(data)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer restored.Close()

	count, _ := restored.Count()
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestSnapshot_AfterClearRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	s.Insert("DOWN", "2024-01-01T00:00:00Z")
	s.Clear()

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored, err := Open(data)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer restored.Close()

	if restored.LastID() != 0 {
		t.Errorf("last id = %d, want 0", restored.LastID())
	}
}
