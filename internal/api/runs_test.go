package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/text2sql/text2sql/internal/archive"
	"github.com/text2sql/text2sql/internal/storage"
)

func TestListRunsForDay(t *testing.T) {
	day := time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC)
	fake := &fakeArchive{records: []archive.RunRecord{{
		RunID:           "run-1",
		Question:        "show users",
		SQL:             "SELECT * FROM users",
		Phase:           "formatted",
		ResultRows:      2,
		StartedAtUnixMs: day.Add(time.Hour).UnixMilli(),
		DurationMs:      42,
	}}}
	h := NewHandler(loadConfig(t, nil), Dependencies{Archive: fake})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs?day=2026-02-20", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !fake.listedDay.Equal(day) {
		t.Fatalf("listed day = %v", fake.listedDay)
	}

	var body struct {
		Day  string       `json:"day"`
		Runs []runSummary `json:"runs"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Day != "2026-02-20" || len(body.Runs) != 1 || body.Runs[0].RunID != "run-1" || body.Runs[0].ResultRows != 2 {
		t.Fatalf("body = %+v", body)
	}
}

func TestListRunsRejectsBadDay(t *testing.T) {
	h := NewHandler(loadConfig(t, nil), Dependencies{Archive: &fakeArchive{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs?day=20-02-2026", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGetRunReturnsReport(t *testing.T) {
	fake := &fakeArchive{reports: map[string]string{"run-1": "Error:\nerror generating SQL: boom\n"}}
	h := NewHandler(loadConfig(t, nil), Dependencies{Archive: fake})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/run-1?day=2026-02-20", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "Error:\nerror generating SQL: boom\n" {
		t.Fatalf("status = %d, body = %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs/run-2", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRunsNotConfigured(t *testing.T) {
	h := NewHandler(loadConfig(t, nil), Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
}

type fakeArchive struct {
	records   []archive.RunRecord
	reports   map[string]string
	listedDay time.Time
}

func (f *fakeArchive) List(_ context.Context, day time.Time) ([]archive.RunRecord, error) {
	f.listedDay = day
	return f.records, nil
}

func (f *fakeArchive) Report(_ context.Context, runID string, _ time.Time) (string, error) {
	report, ok := f.reports[runID]
	if !ok {
		return "", storage.ErrObjectNotFound
	}
	return report, nil
}
