package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/text2sql/text2sql/internal/nl2sql"
	"github.com/text2sql/text2sql/internal/query"
	"github.com/text2sql/text2sql/internal/report"
	"github.com/text2sql/text2sql/internal/schema"
)

// Stage takes the current state and returns the next one.
type Stage func(ctx context.Context, state State) State

func FetchSchema(introspector schema.Introspector) Stage {
	return func(ctx context.Context, state State) State {
		if state.Failed() {
			return state
		}
		description, err := introspector.Describe(ctx)
		if err != nil {
			var introspectionErr *schema.IntrospectionError
			if !errors.As(err, &introspectionErr) {
				err = &schema.IntrospectionError{Err: err}
			}
			return state.fail(err)
		}
		state.Schema = description
		state.Phase = PhaseSchemaFetched
		return state
	}
}

func GenerateSQL(generator nl2sql.Generator) Stage {
	return func(ctx context.Context, state State) State {
		if state.Failed() {
			return state
		}
		sql, err := generator.Generate(ctx, state.Question, state.Schema)
		if err == nil && sql == "" {
			err = fmt.Errorf("generator returned empty SQL")
		}
		if err != nil {
			var generationErr *nl2sql.GenerationError
			if !errors.As(err, &generationErr) {
				err = &nl2sql.GenerationError{Err: err}
			}
			return state.fail(fmt.Errorf("error generating SQL: %w", err))
		}
		state.SQL = sql
		state.Phase = PhaseSQLGenerated
		return state
	}
}

func ExecuteSQL(engine query.Engine) Stage {
	return func(ctx context.Context, state State) State {
		if state.Failed() {
			return state
		}
		result, err := engine.Execute(ctx, state.SQL)
		if err != nil {
			var executionErr *query.ExecutionError
			if !errors.As(err, &executionErr) {
				err = &query.ExecutionError{SQL: state.SQL, Err: err}
			}
			state.Result = ""
			return state.fail(fmt.Errorf("error executing SQL: %w", err))
		}
		state.Result = query.Render(result)
		state.Rows = len(result.Rows)
		state.Phase = PhaseExecuted
		return state
	}
}

// FormatReport always runs, including after a failure.
func FormatReport() Stage {
	return func(_ context.Context, state State) State {
		state.Output = report.Format(state.Record())
		if !state.Failed() {
			state.Phase = PhaseFormatted
		}
		return state
	}
}
