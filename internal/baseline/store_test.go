package baseline

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreSnapshotAbsent(t *testing.T) {
	s := NewFileStore(t.TempDir(), 7)
	_, ok, err := s.Snapshot("row_count.document_index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for absent metric")
	}
}

func TestFileStoreCommitRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, 7)
	s.Record("row_count.document_index", 21)
	if err := s.Update("row_count.document_index"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reopened := NewFileStore(dir, 7)
	rec, ok, err := reopened.Snapshot("row_count.document_index")
	if err != nil || !ok {
		t.Fatalf("expected persisted record, ok=%v err=%v", ok, err)
	}
	if len(rec.Window) != 1 || rec.Window[0].Value != 21 {
		t.Fatalf("unexpected window %+v", rec.Window)
	}
	if rec.Mean != 21 || rec.StdDev != 0 {
		t.Fatalf("unexpected stats mean=%v stddev=%v", rec.Mean, rec.StdDev)
	}
	if rec.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt to be set")
	}
}

func TestFileStoreWindowEviction(t *testing.T) {
	s := NewFileStore(t.TempDir(), 3)
	for _, v := range []float64{1, 2, 3, 4} {
		s.Record("m", v)
		if err := s.Update("m"); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}
	rec, _, err := s.Snapshot("m")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if got := rec.Values(); len(got) != 3 || got[0] != 2 || got[2] != 4 {
		t.Fatalf("expected oldest value evicted, got %v", got)
	}
}

func TestFileStoreRepeatedCommitShiftsStats(t *testing.T) {
	s := NewFileStore(t.TempDir(), 7)
	s.Record("m", 10)
	if err := s.Update("m"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	s.Record("m", 12)
	if err := s.Update("m"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	first, _, _ := s.Snapshot("m")

	// Committing the same value again still appends a new observation.
	s.Record("m", 12)
	if err := s.Update("m"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	second, _, _ := s.Snapshot("m")
	if len(second.Window) != len(first.Window)+1 {
		t.Fatalf("expected window growth, got %d then %d", len(first.Window), len(second.Window))
	}
	if second.Mean == first.Mean {
		t.Fatalf("expected mean to shift, stayed at %v", first.Mean)
	}
	if math.Abs(second.Mean-34.0/3.0) > 1e-9 {
		t.Fatalf("unexpected mean %v", second.Mean)
	}
}

func TestFileStoreUpdateWithoutStaged(t *testing.T) {
	s := NewFileStore(t.TempDir(), 7)
	if err := s.Update("never_recorded"); err == nil {
		t.Fatalf("expected error for missing staged observation")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	s := NewFileStore(dir, 7)
	if _, _, err := s.Snapshot("m"); err == nil {
		t.Fatalf("expected error for corrupt baseline file")
	}
}

func TestFileStoreUpdateAllCommitsEverything(t *testing.T) {
	s := NewFileStore(t.TempDir(), 7)
	s.Record("a", 1)
	s.Record("b", 2)
	if err := s.UpdateAll(); err != nil {
		t.Fatalf("update all failed: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		if _, ok, _ := s.Snapshot(name); !ok {
			t.Fatalf("expected %s committed", name)
		}
	}
	if len(s.staged) != 0 {
		t.Fatalf("expected staged map drained, got %v", s.staged)
	}
}

func TestMemStoreSeedAndStage(t *testing.T) {
	s := NewMemStore(7)
	s.Seed("m", []float64{19.8, 21.2})
	rec, ok, err := s.Snapshot("m")
	if err != nil || !ok {
		t.Fatalf("expected seeded record, ok=%v err=%v", ok, err)
	}
	if rec.Mean != 20.5 {
		t.Fatalf("unexpected mean %v", rec.Mean)
	}

	s.Record("m", 21)
	if !s.Staged("m") {
		t.Fatalf("expected staged observation")
	}
	rec, _, _ = s.Snapshot("m")
	if len(rec.Window) != 2 {
		t.Fatalf("staging must not touch the window, got %d entries", len(rec.Window))
	}

	if err := s.UpdateAll(); err != nil {
		t.Fatalf("update all failed: %v", err)
	}
	rec, _, _ = s.Snapshot("m")
	if len(rec.Window) != 3 || s.Staged("m") {
		t.Fatalf("expected committed window of 3, got %d staged=%v", len(rec.Window), s.Staged("m"))
	}
}
