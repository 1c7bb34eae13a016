package fstore

import (
	"testing"

	"github.com/syedmoizurrehman/DistributedKVStore/lib/store"
)

func newTestRecordStore(t *testing.T) *RecordStore {
	t.Helper()
	s, err := NewRecordStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open record store: %v", err)
	}
	return s
}

func TestRecordStoreUpsertGet(t *testing.T) {
	s := newTestRecordStore(t)

	rec, err := s.Upsert("a", "hello")
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if rec.Timestamp == 0 {
		t.Error("Expected upsert to stamp a timestamp")
	}

	got, ok, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected record to exist")
	}
	if got != rec {
		t.Errorf("Get returned %+v, want %+v", got, rec)
	}
}

func TestRecordStoreUpsertOverwrites(t *testing.T) {
	s := newTestRecordStore(t)

	clock := int64(100)
	s.SetClock(func() int64 { clock++; return clock })

	first, _ := s.Upsert("a", "v1")
	second, _ := s.Upsert("a", "v2")

	if second.Timestamp <= first.Timestamp {
		t.Errorf("Expected later upsert to carry a later stamp: %d vs %d",
			second.Timestamp, first.Timestamp)
	}

	got, _, _ := s.Get("a")
	if got.Value != "v2" {
		t.Errorf("Expected overwritten value v2, got %q", got.Value)
	}
}

func TestRecordStoreDelete(t *testing.T) {
	s := newTestRecordStore(t)

	s.Upsert("a", "hello")
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, ok, _ := s.Get("a")
	if ok {
		t.Error("Expected record to be gone after delete")
	}
}

// TestRecordStoreDeleteIdempotence: the second delete reports not-found and
// leaves state unchanged.
func TestRecordStoreDeleteIdempotence(t *testing.T) {
	s := newTestRecordStore(t)

	s.Upsert("a", "hello")
	s.Upsert("b", "world")

	if err := s.Delete("a"); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}

	err := s.Delete("a")
	if err == nil {
		t.Fatal("Expected second delete to fail")
	}
	if !store.IsNotFound(err) {
		t.Errorf("Expected a not-found error, got: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Expected remaining record untouched, store has %d records", s.Len())
	}
}

func TestRecordStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewRecordStore(dir)
	if err != nil {
		t.Fatalf("Failed to open record store: %v", err)
	}
	s.Upsert("a", "hello")
	s.Upsert("b", "world")
	s.Delete("b")
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewRecordStore(dir)
	if err != nil {
		t.Fatalf("Failed to reopen record store: %v", err)
	}

	rec, ok, _ := reopened.Get("a")
	if !ok {
		t.Fatal("Expected record to survive reopen")
	}
	if rec.Value != "hello" {
		t.Errorf("Expected value hello after reopen, got %q", rec.Value)
	}
	if _, ok, _ := reopened.Get("b"); ok {
		t.Error("Deleted record resurfaced after reopen")
	}
}

func TestLookupStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := NewLookupStore(dir)
	if err != nil {
		t.Fatalf("Failed to open lookup store: %v", err)
	}

	if err := s.Upsert("a", 2); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := s.Upsert("a", 3); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	ringSize, ok, _ := s.Get("a")
	if !ok || ringSize != 3 {
		t.Errorf("Expected ring size 3, got %d (found=%v)", ringSize, ok)
	}

	s.Close()

	reopened, err := NewLookupStore(dir)
	if err != nil {
		t.Fatalf("Failed to reopen lookup store: %v", err)
	}
	ringSize, ok, _ = reopened.Get("a")
	if !ok || ringSize != 3 {
		t.Errorf("Expected ring size 3 after reopen, got %d (found=%v)", ringSize, ok)
	}
}

func TestLookupStoreDeleteAbsent(t *testing.T) {
	s, err := NewLookupStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open lookup store: %v", err)
	}

	err = s.Delete("missing")
	if err == nil {
		t.Fatal("Expected delete of absent key to fail")
	}
	if !store.IsNotFound(err) {
		t.Errorf("Expected a not-found error, got: %v", err)
	}
}
