package nl2sql

import "strings"

// CleanSQL strips markdown code fences that models wrap statements in.
// It is purely textual and does not validate the SQL.
func CleanSQL(raw string) string {
	sql := strings.TrimSpace(raw)
	if strings.HasPrefix(sql, "```sql") {
		sql = strings.TrimPrefix(sql, "```sql")
	} else {
		sql = strings.TrimPrefix(sql, "```")
	}
	sql = strings.TrimSuffix(sql, "```")
	return strings.TrimSpace(sql)
}
