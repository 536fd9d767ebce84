package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	applog "expensetracker/internal/log"
)

const readyTimeout = 2 * time.Second

func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Expense Tracker API"))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports 503 until the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		respondFailure(w, http.StatusServiceUnavailable, "Store unavailable", nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondFailure(w, http.StatusNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path), nil)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondFailure(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path), nil)
}

// recoverer turns a handler panic into a 500 envelope and logs the stack.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Panic while serving request",
				applog.FieldError, fmt.Sprint(rec),
				"stack", string(debug.Stack()))
			respondFailure(w, http.StatusInternalServerError, msgInternal, nil)
		}()
		next.ServeHTTP(w, r)
	})
}
