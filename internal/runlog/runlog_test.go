package runlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open test log: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestJournalModeWAL(t *testing.T) {
	l := openTestLog(t)
	var mode string
	if err := l.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestRecordAndGet(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run := Run{
		Version:      "v-1",
		DataPath:     "ml/data/synthetic_profiles.csv",
		BundlePath:   "ml/models/ui_model_bundle.json",
		Rows:         2000,
		Seed:         42,
		MeanAccuracy: 0.93,
		Accuracy:     map[string]float64{"color_theme": 0.99, "motion": 0.84},
		Flagged:      []string{"motion"},
		StartedAt:    start,
		FinishedAt:   start.Add(90 * time.Second),
	}
	id, err := l.Record(ctx, run)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	got, err := l.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Version != "v-1" || got.Rows != 2000 || got.Seed != 42 {
		t.Errorf("unexpected run %+v", got)
	}
	if got.Accuracy["motion"] != 0.84 {
		t.Errorf("accuracy = %v", got.Accuracy)
	}
	if len(got.Flagged) != 1 || got.Flagged[0] != "motion" {
		t.Errorf("flagged = %v", got.Flagged)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("duration = %s", got.Duration())
	}
}

func TestGet_NotFound(t *testing.T) {
	l := openTestLog(t)
	if _, err := l.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, v := range []string{"old", "mid", "new"} {
		finished := base.Add(time.Duration(i) * time.Hour)
		if _, err := l.Record(ctx, Run{Version: v, StartedAt: finished.Add(-time.Minute), FinishedAt: finished}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := l.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Version != "new" || runs[1].Version != "mid" {
		t.Errorf("order = %s, %s", runs[0].Version, runs[1].Version)
	}
	if runs[0].Flagged == nil {
		t.Error("expected empty, non-nil flagged list")
	}
}
