package archive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/text2sql/text2sql/internal/observability"
	"github.com/text2sql/text2sql/internal/storage"
)

type RetentionSummary struct {
	ObjectsScanned int
	ObjectsDeleted int
	RunsDeleted    int
	Failures       int
}

// Prune deletes archived objects whose run day is older than keepDays full
// UTC days before now. keepDays must be at least 1, so today's runs always
// survive.
func (r *Recorder) Prune(ctx context.Context, keepDays int, now time.Time) (RetentionSummary, error) {
	if keepDays < 1 {
		return RetentionSummary{}, fmt.Errorf("keep days must be >= 1, got %d", keepDays)
	}
	today, _ := time.Parse(time.DateOnly, storage.RunDayPrefix(now))
	cutoff := today.AddDate(0, 0, -(keepDays - 1))

	objects, err := r.store.List(ctx, storage.RunsRoot+"/")
	if err != nil {
		return RetentionSummary{}, err
	}

	summary := RetentionSummary{ObjectsScanned: len(objects)}
	failures := make([]string, 0)
	runs := map[string]struct{}{}
	for _, object := range objects {
		day, ok := storage.RunDayFromKey(object.Key)
		if !ok || !day.Before(cutoff) {
			continue
		}
		if err := r.store.Delete(ctx, object.Key); err != nil {
			summary.Failures++
			failures = append(failures, fmt.Sprintf("delete %s: %v", object.Key, err))
			continue
		}
		summary.ObjectsDeleted++
		if runID, ok := storage.RunIDFromKey(object.Key); ok {
			runs[storage.RunDayPrefix(day)+"/"+runID] = struct{}{}
		}
	}
	summary.RunsDeleted = len(runs)
	observability.AddArchiveObjectsPruned(summary.ObjectsDeleted)
	r.logger.Info("archive retention finished",
		slog.String("cutoff", cutoff.Format(time.DateOnly)),
		slog.Int("objects_scanned", summary.ObjectsScanned),
		slog.Int("objects_deleted", summary.ObjectsDeleted),
		slog.Int("runs_deleted", summary.RunsDeleted),
		slog.Int("failures", summary.Failures),
	)

	if len(failures) > 0 {
		return summary, fmt.Errorf("retention encountered %d failure(s): %s", len(failures), strings.Join(failures, "; "))
	}
	return summary, nil
}
