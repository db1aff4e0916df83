package report

import "strings"

const (
	LabelError    = "Error:"
	LabelQuestion = "User Question:"
	LabelSQL      = "Generated SQL:"
	LabelResults  = "Query Results:"
)

// Record is the part of a finished run that ends up in the report.
type Record struct {
	Question string
	SQL      string
	Result   string
	Error    string
}

// Format renders a labeled error block when Error is set, otherwise the
// question, SQL and results sections in that order. Nothing else is shown
// alongside an error.
func Format(r Record) string {
	var sb strings.Builder
	if r.Error != "" {
		writeSection(&sb, LabelError, r.Error)
		return sb.String()
	}
	writeSection(&sb, LabelQuestion, r.Question)
	sb.WriteString("\n")
	writeSection(&sb, LabelSQL, r.SQL)
	sb.WriteString("\n")
	writeSection(&sb, LabelResults, r.Result)
	return sb.String()
}

func writeSection(sb *strings.Builder, label, body string) {
	sb.WriteString(label)
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n")
}
