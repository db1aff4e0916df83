package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/text2sql/text2sql/internal/archive"
	"github.com/text2sql/text2sql/internal/auth"
	"github.com/text2sql/text2sql/internal/storage"
)

type runSummary struct {
	RunID       string    `json:"run_id"`
	Question    string    `json:"question"`
	SQL         string    `json:"sql"`
	Error       string    `json:"error,omitempty"`
	Phase       string    `json:"phase"`
	FailedPhase string    `json:"failed_phase,omitempty"`
	ResultRows  int64     `json:"result_rows"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  int64     `json:"duration_ms"`
}

func handleListRuns(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	day, ok := archiveRequest(deps, w, r)
	if !ok {
		return
	}
	records, err := deps.Archive.List(r.Context(), day)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "ARCHIVE_READ_FAILED", "failed to list archived runs", true, map[string]any{"details": err.Error()})
		return
	}
	runs := make([]runSummary, 0, len(records))
	for _, record := range records {
		runs = append(runs, summarize(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"day":  day.Format(time.DateOnly),
		"runs": runs,
	})
}

func handleGetRun(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	day, ok := archiveRequest(deps, w, r)
	if !ok {
		return
	}
	runID := strings.TrimSpace(r.PathValue("run"))
	report, err := deps.Archive.Report(r.Context(), runID, day)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "RUN_NOT_FOUND", "run not found", false, map[string]any{"run_id": runID, "day": day.Format(time.DateOnly)})
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "ARCHIVE_READ_FAILED", err.Error(), false, nil)
		return
	}
	writeText(w, http.StatusOK, report)
}

// archiveRequest checks the archive dependency and role, and parses the
// optional day query parameter (UTC, defaults to today).
func archiveRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	if deps.Archive == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ARCHIVE_NOT_CONFIGURED", "run archive is disabled", false, nil)
		return time.Time{}, false
	}
	if err := auth.RequireRole(r, auth.RoleAsker); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return time.Time{}, false
	}
	day := time.Now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("day")); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_DAY", "day must be YYYY-MM-DD", false, map[string]any{"day": raw})
			return time.Time{}, false
		}
		day = parsed
	}
	return day, true
}

func summarize(record archive.RunRecord) runSummary {
	return runSummary{
		RunID:       record.RunID,
		Question:    record.Question,
		SQL:         record.SQL,
		Error:       record.Error,
		Phase:       record.Phase,
		FailedPhase: record.FailedPhase,
		ResultRows:  record.ResultRows,
		StartedAt:   record.StartedAt(),
		DurationMs:  record.DurationMs,
	}
}
