package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gradelens/gradelens/internal/auth"
	"github.com/gradelens/gradelens/internal/observability"
)

type legacyQueryRequest struct {
	Query string `json:"query"`
}

type legacyQueryResponse struct {
	Result   *string `json:"result"`
	SQLQuery string  `json:"sql_query"`
	Error    string  `json:"error,omitempty"`
}

// handleLegacyQuery serves the original dashboard contract. The status code
// carries almost no signal there: only a missing question is a 400, every
// pipeline failure is reported as a 200 with an error field.
func handleLegacyQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeJSON(w, http.StatusOK, legacyQueryResponse{Error: "query pipeline is not configured"})
		return
	}

	question := legacyQuestion(r)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, legacyQueryResponse{Error: "未提供查询内容"})
		return
	}

	state, err := deps.Pipeline.Run(r.Context(), question)
	if err != nil {
		writeJSON(w, http.StatusOK, legacyQueryResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, legacyQueryResponse{
		Result:   &state.Explanation,
		SQLQuery: state.SQL,
	})
}

// legacyQuestion accepts both JSON and form-encoded bodies, matching the
// clients the original endpoint grew up with.
func legacyQuestion(r *http.Request) string {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/x-www-form-urlencoded") || strings.Contains(contentType, "multipart/form-data") {
		return strings.TrimSpace(r.FormValue("query"))
	}
	var request legacyQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return ""
	}
	return strings.TrimSpace(request.Query)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question     string `json:"question"`
	SQL          string `json:"sql"`
	RawResult    string `json:"raw_result"`
	Explanation  string `json:"explanation"`
	UsedFallback bool   `json:"used_fallback"`
	RowCount     int    `json:"row_count"`
	ExecError    string `json:"exec_error,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
	TraceID      string `json:"trace_id"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "query pipeline is not configured", false, nil)
		return
	}
	if err := requireRole(r, "query"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	state, err := deps.Pipeline.Run(r.Context(), request.Question)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "PIPELINE_FAILED", err.Error(), true, nil)
		return
	}

	response := askResponse{
		Question:     state.Question,
		SQL:          state.SQL,
		RawResult:    state.RawResult,
		Explanation:  state.Explanation,
		UsedFallback: state.UsedFallback,
		RowCount:     state.RowCount,
		DurationMS:   state.Duration.Milliseconds(),
		TraceID:      observability.TraceIDFromContext(r.Context()),
	}
	if state.ExecErr != nil {
		response.ExecError = state.ExecErr.Error()
	}
	writeJSON(w, http.StatusOK, response)
}

func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
