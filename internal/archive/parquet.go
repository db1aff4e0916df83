package archive

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/text2sql/text2sql/internal/pipeline"
)

// RunRecord is the single row stored in run.parquet.
type RunRecord struct {
	RunID            string `parquet:"run_id"`
	Question         string `parquet:"question"`
	SQL              string `parquet:"sql"`
	Error            string `parquet:"error"`
	Phase            string `parquet:"phase"`
	FailedPhase      string `parquet:"failed_phase"`
	ResultRows       int64  `parquet:"result_rows"`
	StartedAtUnixMs  int64  `parquet:"started_at_unix_ms"`
	FinishedAtUnixMs int64  `parquet:"finished_at_unix_ms"`
	DurationMs       int64  `parquet:"duration_ms"`
}

func (r RunRecord) StartedAt() time.Time {
	return time.UnixMilli(r.StartedAtUnixMs).UTC()
}

func recordFromRun(run pipeline.Run) RunRecord {
	record := RunRecord{
		RunID:            run.ID,
		Question:         run.State.Question,
		SQL:              run.State.SQL,
		Phase:            string(run.State.Phase),
		FailedPhase:      string(run.State.FailedPhase),
		ResultRows:       int64(run.State.Rows),
		StartedAtUnixMs:  run.StartedAt.UnixMilli(),
		FinishedAtUnixMs: run.FinishedAt.UnixMilli(),
		DurationMs:       run.Duration().Milliseconds(),
	}
	if run.State.Err != nil {
		record.Error = run.State.Err.Error()
	}
	return record
}

func EncodeRecords(records []RunRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("records are required")
	}
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[RunRecord](buf)
	if _, err := writer.Write(records); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeRecords(data []byte) ([]RunRecord, error) {
	records, err := parquet.Read[RunRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return records, nil
}
