package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// successEnvelope wraps every successful API response.
type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Meta    *meta  `json:"meta,omitempty"`
}

// failureEnvelope wraps every failed API response. Details is null unless
// the failure carries field violations.
type failureEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

func newMeta(p core.Page) *meta {
	m := &meta{Total: p.Total, Page: p.Page, Limit: p.Limit}
	if p.Limit > 0 {
		m.Pages = (p.Total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return m
}

// writeJSON encodes body before touching the response so an unencodable
// value still yields a 500 envelope instead of an empty reply.
func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		slog.Error("Failed to encode response", applog.FieldError, err, applog.FieldStatusCode, status)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(failureEnvelope{Success: false, Message: msgInternal})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

func respondPage(w http.ResponseWriter, p core.Page) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: p.Items, Meta: newMeta(p)})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, successEnvelope{Success: true, Message: message})
}

func respondFailure(w http.ResponseWriter, status int, message string, details any) {
	writeJSON(w, status, failureEnvelope{Success: false, Message: message, Details: details})
}
