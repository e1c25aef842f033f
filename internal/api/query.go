package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/datawhisper/datawhisper/internal/nl2sql"
	"github.com/datawhisper/datawhisper/internal/observability"
	"github.com/datawhisper/datawhisper/internal/query"
)

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	SQLQuery string             `json:"sql_query"`
	Results  []query.OrderedRow `json:"results"`
}

type translateResponse struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

const truncatedHeader = "X-Result-Truncated"

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	observability.IncrementQueryRequests()

	if deps.QueryEngine == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "DATABASE_UNAVAILABLE", "Database connection not available", true, nil)
		return
	}

	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	sqlText, ok := translate(deps, w, r, question)
	if !ok {
		return
	}

	if err := query.ValidateReadOnly(sqlText); err != nil {
		observability.IncrementQueryFailure(observability.StageValidate)
		logQueryFailure(deps, r, observability.StageValidate, sqlText, err)
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", executionFailure(err, sqlText), false, nil)
		return
	}

	result, err := deps.QueryEngine.Execute(r.Context(), query.Request{SQL: sqlText, RowLimit: deps.MaxRows})
	if err != nil {
		observability.IncrementQueryFailure(observability.StageExecute)
		logQueryFailure(deps, r, observability.StageExecute, sqlText, err)
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", executionFailure(err, sqlText), false, nil)
		return
	}
	observability.ObserveQueryExecution(len(result.Rows), result.Duration)

	if result.Truncated {
		w.Header().Set(truncatedHeader, strconv.FormatBool(true))
	}
	if deps.Logger != nil {
		deps.Logger.InfoContext(r.Context(), "query answered",
			slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
			slog.Int("rows", len(result.Rows)),
			slog.Bool("truncated", result.Truncated),
			slog.Int64("duration_ms", result.Duration.Milliseconds()),
		)
	}
	writeJSON(w, http.StatusOK, queryResponse{SQLQuery: sqlText, Results: result.OrderedRows()})
}

func handleTranslateQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}
	if deps.QueryTranslator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", "query translation is not configured", false, nil)
		return
	}

	start := time.Now()
	result, err := deps.QueryTranslator.Translate(r.Context(), nl2sql.Request{NaturalLanguage: question})
	observability.ObserveTranslation(time.Since(start))
	if err != nil {
		observability.IncrementQueryFailure(observability.StageTranslate)
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "failed to translate query", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{SQL: result.SQL, Provider: result.Provider, Model: result.Model})
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var request queryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return "", false
	}
	question := strings.TrimSpace(request.Query)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
		return "", false
	}
	return question, true
}

func translate(deps Dependencies, w http.ResponseWriter, r *http.Request, question string) (string, bool) {
	if deps.QueryTranslator == nil {
		err := errors.New("translator is not configured")
		writeError(r.Context(), w, http.StatusInternalServerError, "TRANSLATE_FAILED", translationFailure(err), false, nil)
		return "", false
	}

	start := time.Now()
	result, err := deps.QueryTranslator.Translate(r.Context(), nl2sql.Request{NaturalLanguage: question})
	observability.ObserveTranslation(time.Since(start))
	if err == nil && strings.TrimSpace(result.SQL) == "" {
		err = nl2sql.ErrNoSelect
	}
	if err != nil {
		observability.IncrementQueryFailure(observability.StageTranslate)
		logQueryFailure(deps, r, observability.StageTranslate, "", err)
		writeError(r.Context(), w, http.StatusInternalServerError, "TRANSLATE_FAILED", translationFailure(err), true, nil)
		return "", false
	}
	return result.SQL, true
}

func translationFailure(err error) string {
	return fmt.Sprintf("Error calling LLM API or parsing response: %v", err)
}

func executionFailure(err error, sqlText string) string {
	return fmt.Sprintf("Error executing SQL query: %v. Generated SQL was: %s", err, sqlText)
}

func logQueryFailure(deps Dependencies, r *http.Request, stage, sqlText string, err error) {
	if deps.Logger == nil {
		return
	}
	deps.Logger.WarnContext(r.Context(), "query failed",
		slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
		slog.String("stage", stage),
		slog.String("sql", sqlText),
		slog.String("error", err.Error()),
	)
}
