package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/text2sql/text2sql/internal/observability"
	"github.com/text2sql/text2sql/internal/pipeline"
	"github.com/text2sql/text2sql/internal/storage"
)

const (
	ReportObjectName = "report.txt"
	RunObjectName    = "run.parquet"
)

// Recorder stores each finished run as report.txt plus run.parquet under
// runs/<yyyy-mm-dd>/<run-id>/.
type Recorder struct {
	store  storage.ObjectStore
	logger *slog.Logger
}

func NewRecorder(store storage.ObjectStore, logger *slog.Logger) (*Recorder, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Recorder{store: store, logger: logger}, nil
}

func (r *Recorder) Record(ctx context.Context, run pipeline.Run) error {
	reportKey, err := storage.BuildRunObjectPath(run.ID, run.StartedAt, ReportObjectName)
	if err != nil {
		return err
	}
	runKey, err := storage.BuildRunObjectPath(run.ID, run.StartedAt, RunObjectName)
	if err != nil {
		return err
	}

	data, err := EncodeRecords([]RunRecord{recordFromRun(run)})
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	if _, err := r.store.Put(ctx, runKey, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: "application/vnd.apache.parquet"}); err != nil {
		return err
	}
	report := run.State.Output
	if _, err := r.store.Put(ctx, reportKey, strings.NewReader(report), int64(len(report)), storage.PutOptions{ContentType: "text/plain; charset=utf-8"}); err != nil {
		return err
	}
	r.logger.Debug("run archived", slog.String("run_id", run.ID), slog.String("key", runKey))
	return nil
}

// List returns the archived runs started on the given UTC day, oldest first.
func (r *Recorder) List(ctx context.Context, day time.Time) ([]RunRecord, error) {
	prefix := storage.RunsRoot + "/" + storage.RunDayPrefix(day) + "/"
	objects, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	records := make([]RunRecord, 0)
	for _, object := range objects {
		if !strings.HasSuffix(object.Key, "/"+RunObjectName) {
			continue
		}
		decoded, err := r.readRecords(ctx, object.Key)
		if err != nil {
			return nil, err
		}
		records = append(records, decoded...)
	}
	sortRecords(records)
	return records, nil
}

// Report returns the stored report text of one run.
func (r *Recorder) Report(ctx context.Context, runID string, day time.Time) (string, error) {
	key, err := storage.BuildRunObjectPath(runID, day, ReportObjectName)
	if err != nil {
		return "", err
	}
	reader, err := r.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read report %q: %w", key, err)
	}
	return string(data), nil
}

func (r *Recorder) readRecords(ctx context.Context, key string) ([]RunRecord, error) {
	reader, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read run object %q: %w", key, err)
	}
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode run object %q: %w", key, err)
	}
	return records, nil
}

func sortRecords(records []RunRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].StartedAtUnixMs != records[j].StartedAtUnixMs {
			return records[i].StartedAtUnixMs < records[j].StartedAtUnixMs
		}
		return records[i].RunID < records[j].RunID
	})
}
