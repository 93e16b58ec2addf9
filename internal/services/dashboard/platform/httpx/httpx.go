// Package httpx provides HTTP middleware and response helpers for the
// dashboard service.
package httpx

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	apperrors "github.com/devatlas/devatlas/internal/errors"
)

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

var requestIDCounter atomic.Uint64

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = fmt.Sprintf("dash-%d-%d", time.Now().UnixNano(), requestIDCounter.Add(1))
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverPanic converts panics into HTTP 500 responses so the
// dashboard always stays interactive.
func RecoverPanic() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					path := "-"
					method := "-"
					requestID := "-"
					if r != nil {
						path = strings.TrimSpace(r.URL.Path)
						method = strings.TrimSpace(r.Method)
						if rid := strings.TrimSpace(r.Header.Get("X-Request-ID")); rid != "" {
							requestID = rid
						}
					}
					log.Printf(
						"panic recovered method=%s path=%s request_id=%s panic=%v stack=%s",
						method,
						path,
						requestID,
						recovered,
						strings.TrimSpace(string(debug.Stack())),
					)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request with status and duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			if logger == nil {
				return
			}
			logger.Printf("%s %s status=%d duration=%s",
				r.Method, r.URL.Path, recorder.status, time.Since(start).Round(time.Millisecond))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WriteJSON writes a JSON response with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteJSONError writes a JSON error response with the given status
// code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]any{"error": message})
}

// WriteError writes an error response using typed status mapping.
func WriteError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Error(w, err.Error(), apperrors.HTTPStatus(err))
}
