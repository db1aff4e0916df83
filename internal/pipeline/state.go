package pipeline

import "github.com/text2sql/text2sql/internal/report"

type Phase string

const (
	PhaseStart         Phase = "start"
	PhaseSchemaFetched Phase = "schema_fetched"
	PhaseSQLGenerated  Phase = "sql_generated"
	PhaseExecuted      Phase = "executed"
	PhaseFormatted     Phase = "formatted"
	PhaseErrored       Phase = "errored"
)

// State is the value threaded through the stages. Stages never mutate a
// State they receive; they return an updated copy. Once Err is set no later
// stage clears it or writes Result.
type State struct {
	Question string
	Schema   string
	SQL      string
	Result   string
	Rows     int
	Err      error
	Phase    Phase
	// Output is the formatted report, set by the last stage.
	Output string
	// FailedPhase is the phase the run was in when Err was recorded.
	FailedPhase Phase
}

func NewState(question string) State {
	return State{Question: question, Phase: PhaseStart}
}

func (s State) Failed() bool {
	return s.Err != nil
}

func (s State) fail(err error) State {
	s.FailedPhase = s.Phase
	s.Phase = PhaseErrored
	s.Err = err
	return s
}

func (s State) Record() report.Record {
	record := report.Record{
		Question: s.Question,
		SQL:      s.SQL,
		Result:   s.Result,
	}
	if s.Err != nil {
		record.Error = s.Err.Error()
	}
	return record
}
