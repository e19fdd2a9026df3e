package web

// errors.go maps service errors to HTTP responses. The technical error is
// logged with the request id; the client only sees the mapped user message.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/logging"
	"github.com/JonMunkholm/lexconv/internal/presets"
	"github.com/JonMunkholm/lexconv/internal/textio"
	"github.com/JonMunkholm/lexconv/internal/web/views"
)

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, textio.ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNoSession), errors.Is(err, presets.ErrNotFound),
		errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusNotFound
	case errors.Is(err, presets.ErrExists):
		return http.StatusConflict
	case core.IsUserFacing(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// userMessage maps err, treating an oversized request body like an oversized
// file.
func userMessage(err error) core.UserMessage {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return core.MapError(textio.ErrTooLarge)
	}
	return core.MapError(err)
}

// respondError logs err and writes the mapped message as JSON for API
// requests or as an HTML alert otherwise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := userMessage(err)

	log := logging.FromContext(r.Context())
	if status >= 500 {
		log.Error("request error", "path", r.URL.Path, "status", status, "code", msg.Code, "error", err)
	} else {
		log.Warn("request error", "path", r.URL.Path, "status", status, "code", msg.Code, "error", err)
	}

	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = views.Layout("Error", views.ErrorAlert(msg.Message, msg.Action, msg.Code)).Render(r.Context(), w)
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
