package server

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/felixgeelhaar/secprops/internal/errors"
)

// errorBody is the JSON shape of every failed API response
type errorBody struct {
	Error   string           `json:"error"`
	Message string           `json:"message,omitempty"`
	Code    errors.ErrorCode `json:"code,omitempty"`
}

// statusFor maps an error code to an HTTP status
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeMissingParameter, errors.ErrCodeInvalidRequest, errors.ErrCodeUnsupportedVersion:
		return http.StatusBadRequest
	case errors.ErrCodeAuditDisabled:
		return http.StatusNotFound
	case errors.ErrCodeArtifactMissing:
		return http.StatusServiceUnavailable
	case errors.ErrCodeEngineTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Warn("failed to encode response")
	}
}

// writeError reports err. Request errors carry their message as the error
// title; other failures use title and put the detail in message.
func (s *Server) writeError(w http.ResponseWriter, title string, err error) {
	code := errors.CodeOf(err)
	status := statusFor(code)

	body := errorBody{Error: title, Message: errors.Message(err), Code: code}
	if status == http.StatusBadRequest || status == http.StatusNotFound {
		body = errorBody{Error: errors.Message(err), Code: code}
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error(title)
	}
	s.writeJSON(w, status, body)
}

// statusRecorder captures the response status for metrics and logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records metrics and a debug log line for route
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		d := time.Since(start)
		s.metrics.ObserveRequest(route, rec.status, d)
		s.logger.Debug("request handled",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", d,
		)
	}
}

// recoverer turns a handler panic into a 500
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Error("handler panic", "panic", v, "stack", string(debug.Stack()))
				s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
