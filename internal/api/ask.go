package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/text2sql/text2sql/internal/auth"
	"github.com/text2sql/text2sql/internal/schema"
)

const maxAskBodyBytes = 64 << 10

type askRequest struct {
	Question string `json:"question"`
}

// handleAsk returns the report as text/plain. Generation and execution
// failures are part of the report and still answer 200.
func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Asker == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}
	if err := auth.RequireRole(r, auth.RoleAsker); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	question := strings.TrimSpace(request.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	output, err := deps.Asker.Run(r.Context(), question)
	if err != nil {
		var introspectionErr *schema.IntrospectionError
		if errors.As(err, &introspectionErr) {
			writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_INTROSPECTION_FAILED", err.Error(), true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "ASK_FAILED", err.Error(), true, nil)
		return
	}
	writeText(w, http.StatusOK, output)
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema introspection is not configured", false, nil)
		return
	}
	if err := auth.RequireRole(r, auth.RoleAsker); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	description, err := deps.Schema.Describe(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_INTROSPECTION_FAILED", err.Error(), true, nil)
		return
	}
	writeText(w, http.StatusOK, description+"\n")
}
