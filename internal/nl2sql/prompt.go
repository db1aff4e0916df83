package nl2sql

import "strings"

const systemPromptTemplate = `You are a SQL expert. Given a database schema and a user question,
generate a valid SQL query to answer the question.

Database Schema:
{schema}

Rules:
1. Generate ONLY the SQL query, no explanations
2. Use proper SQL syntax
3. Make sure the query is safe (no DROP, DELETE, or UPDATE unless explicitly requested)
4. Return only SELECT queries unless the user explicitly requests modifications
`

// SystemPrompt embeds the schema description into the fixed instruction text.
// The question is always sent separately as the user turn.
func SystemPrompt(schema string) string {
	return strings.Replace(systemPromptTemplate, "{schema}", schema, 1)
}
