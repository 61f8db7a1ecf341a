package web

// errors.go turns service errors into HTTP responses.
//
// The technical error is logged with the request id; the client gets the
// user message from core.MapError, as JSON for API requests and as an HTML
// page otherwise.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/nem12ingest/internal/core"
	"github.com/JonMunkholm/nem12ingest/internal/logging"
	"github.com/JonMunkholm/nem12ingest/internal/nem12"
	"github.com/JonMunkholm/nem12ingest/internal/store"
	"github.com/JonMunkholm/nem12ingest/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(err error) ErrorResponse {
	msg := core.MapError(err)
	return ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, nem12.ErrStructural):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyIngests), errors.Is(err, core.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message with status.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	resp := newErrorResponse(err)
	s.logRequestError(r, err, status, resp.Code)

	if wantsJSON(r) {
		writeJSONStatus(w, status, resp)
		return
	}
	templ.Handler(templates.ErrorPage(http.StatusText(status), resp.Message, resp.Action, resp.Code), templ.WithStatus(status)).ServeHTTP(w, r)
}

// logRequestError logs the technical error; server errors at ERROR, the
// rest at WARN.
func (s *Server) logRequestError(r *http.Request, err error, status int, code string) {
	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
	}
	if code != "" {
		attrs = append(attrs, "code", code)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
