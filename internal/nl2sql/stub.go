package nl2sql

import "context"

const StubSQL = "SELECT * FROM users LIMIT 5"

// StubGenerator answers every question with StubSQL. Used for offline runs
// and tests where the model must be deterministic.
type StubGenerator struct{}

func (StubGenerator) Generate(context.Context, string, string) (string, error) {
	return StubSQL, nil
}
