package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/text2sql/text2sql/internal/nl2sql"
	"github.com/text2sql/text2sql/internal/observability"
	"github.com/text2sql/text2sql/internal/query"
	"github.com/text2sql/text2sql/internal/schema"
)

// Run is a finished pipeline execution as handed to a Recorder.
type Run struct {
	ID         string
	State      State
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Recorder persists finished runs. Recorder failures are logged and never
// change the report returned to the caller.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

type Options struct {
	Recorder Recorder
	Logger   *slog.Logger
}

type namedStage struct {
	name  string
	stage Stage
}

type Runner struct {
	stages   []namedStage
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func NewRunner(introspector schema.Introspector, generator nl2sql.Generator, engine query.Engine, opts Options) (*Runner, error) {
	if introspector == nil {
		return nil, fmt.Errorf("schema introspector is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("sql generator is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("query engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	return &Runner{
		stages: []namedStage{
			{name: "schema", stage: FetchSchema(introspector)},
			{name: "generate", stage: GenerateSQL(generator)},
			{name: "execute", stage: ExecuteSQL(engine)},
			{name: "format", stage: FormatReport()},
		},
		recorder: opts.Recorder,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Run answers one question and returns the formatted report. Generation
// and execution failures are reported inside the text. A schema
// introspection failure aborts the run and is returned as the error with
// no report.
func (r *Runner) Run(ctx context.Context, question string) (string, error) {
	state, err := r.RunState(ctx, question)
	if err != nil {
		return "", err
	}
	return state.Output, nil
}

func (r *Runner) RunState(ctx context.Context, question string) (State, error) {
	run := Run{ID: r.newID(), StartedAt: r.now()}
	ctx = observability.ContextWithRunID(ctx, run.ID)
	logger := r.logger.With(slog.String("run_id", run.ID))
	logger.Info("pipeline run started", slog.String("question", question))

	state := NewState(question)
	failedStage := ""
	for _, step := range r.stages {
		stageStart := time.Now()
		wasFailed := state.Failed()
		state = step.stage(ctx, state)
		failedHere := !wasFailed && state.Failed()
		if !wasFailed || step.name == "format" {
			observability.ObserveStage(step.name, failedHere, time.Since(stageStart))
		}
		if failedHere {
			failedStage = step.name
			logger.Error("pipeline stage failed", slog.String("stage", step.name), slog.String("error", state.Err.Error()))
		}
		if aborts(state.Err) {
			observability.ObservePipelineRun("aborted")
			return state, state.Err
		}
		r.logStage(logger, step.name, state)
	}

	run.FinishedAt = r.now()
	run.State = state
	outcome := "ok"
	if state.Failed() {
		outcome = failedStage + "_error"
	} else {
		observability.ObserveResultRows(state.Rows)
	}
	observability.ObservePipelineRun(outcome)
	logger.Info("pipeline run finished",
		slog.String("outcome", outcome),
		slog.Duration("duration", run.Duration()),
	)

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, run); err != nil {
			observability.IncrementArchiveFailures()
			logger.Warn("archive run failed", slog.String("error", err.Error()))
		}
	}
	return state, nil
}

func (r *Runner) logStage(logger *slog.Logger, name string, state State) {
	if state.Failed() {
		return
	}
	switch name {
	case "schema":
		logger.Debug("schema fetched", slog.Int("schema_bytes", len(state.Schema)))
	case "generate":
		logger.Info("sql generated", slog.String("sql", state.SQL))
	case "execute":
		logger.Info("sql executed", slog.Int("rows", state.Rows))
	}
}

// aborts reports whether a recorded failure ends the run without a report.
// Only schema introspection failures do.
func aborts(err error) bool {
	var introspectionErr *schema.IntrospectionError
	return errors.As(err, &introspectionErr)
}
