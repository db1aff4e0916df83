package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Render writes a tab-joined header line followed by one tab-joined line per
// row, in the order the database returned them. An empty result renders as
// NoRowsMessage.
func Render(result Result) string {
	if result.Empty() {
		return NoRowsMessage
	}
	lines := make([]string, 0, len(result.Rows)+1)
	lines = append(lines, strings.Join(result.Columns, "\t"))
	cells := make([]string, 0, len(result.Columns))
	for _, row := range result.Rows {
		cells = cells[:0]
		for _, value := range row {
			cells = append(cells, FormatValue(value))
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return strings.Join(lines, "\n")
}

func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case string:
		return typed
	case []byte:
		return string(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(typed)
	case Date:
		return typed.String()
	case time.Time:
		if typed.Nanosecond() != 0 {
			return typed.Format("2006-01-02 15:04:05.000000")
		}
		return typed.Format(time.DateTime)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
