package archive

import (
	"context"
	"testing"
	"time"
)

func TestPruneDeletesRunsBeforeCutoff(t *testing.T) {
	recorder := newLocalRecorder(t, t.TempDir())
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	for _, run := range []struct {
		id  string
		day time.Time
	}{
		{id: "old", day: now.AddDate(0, 0, -5)},
		{id: "edge", day: now.AddDate(0, 0, -1)},
		{id: "today", day: now},
	} {
		if err := recorder.Record(context.Background(), sampleRun(run.id, run.day, nil)); err != nil {
			t.Fatalf("Record(%s) error = %v", run.id, err)
		}
	}

	summary, err := recorder.Prune(context.Background(), 2, now)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if summary.ObjectsScanned != 6 || summary.ObjectsDeleted != 2 || summary.RunsDeleted != 1 || summary.Failures != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	old, err := recorder.List(context.Background(), now.AddDate(0, 0, -5))
	if err != nil {
		t.Fatalf("List(old) error = %v", err)
	}
	if len(old) != 0 {
		t.Fatalf("old runs = %+v", old)
	}
	for _, day := range []time.Time{now.AddDate(0, 0, -1), now} {
		records, err := recorder.List(context.Background(), day)
		if err != nil {
			t.Fatalf("List(%v) error = %v", day, err)
		}
		if len(records) != 1 {
			t.Fatalf("runs on %v = %+v", day, records)
		}
	}
}

func TestPruneRejectsZeroKeepDays(t *testing.T) {
	recorder := newLocalRecorder(t, t.TempDir())
	if _, err := recorder.Prune(context.Background(), 0, time.Now()); err == nil {
		t.Fatal("expected keep days validation error")
	}
}
