package web

// errors.go turns unfold failures into HTTP responses. The technical error
// is logged with the request and job IDs; the client gets the coded user
// message from core.MapError, as JSON or as an HTML alert.

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"

	"github.com/JonMunkholm/unfold/internal/core"
	"github.com/JonMunkholm/unfold/internal/logging"
	"github.com/JonMunkholm/unfold/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an unfold failure.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	var parseErr *csv.ParseError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyJobs):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, core.ErrInconsistentConstant):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidArgument),
		errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, core.ErrRowHeaderMismatch),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message in the format
// the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.WithFields(r.Context(), "unfold_id", w.Header().Get(unfoldIDHeader))
	attrs := []any{"path", r.URL.Path, "status", status, "code", msg.Code, "error", err.Error()}
	if status >= http.StatusInternalServerError {
		logger.Error("unfold request failed", attrs...)
	} else {
		logger.Warn("unfold request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if responseFormat(r) == formatHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if rerr := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); rerr != nil {
			logger.Error("render error alert", "error", rerr)
		}
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
