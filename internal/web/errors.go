package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure goes through respondError, which logs the technical error
// with the request id and sends the caller a mapped UserMessage, either as
// JSON or as the upload page with an error banner.

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/dbroute/internal/core"
	"github.com/JonMunkholm/dbroute/internal/web/templates"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errNoFile      = errors.New("no file provided")
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error code to an HTTP status. fallback is used for
// codes with no fixed status.
func statusFor(code string, fallback int) int {
	switch {
	case code == "FMT001", code == "TGT001", code == "FILE004", code == "FILE005":
		return http.StatusBadRequest
	case code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case code == "CFG001", code == "UPL002":
		return http.StatusServiceUnavailable
	case code == "UPL005":
		return http.StatusGatewayTimeout
	case code == "RATE001":
		return http.StatusTooManyRequests
	case code == "SNK001", code == "CFG002", strings.HasPrefix(code, "DB"):
		return http.StatusBadGateway
	}
	return fallback
}

// respondError logs err and writes the mapped message. statusCode is used
// when the error code has no status of its own; pass 0 to derive it.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := core.MapError(err)
	if statusCode == 0 {
		statusCode = statusFor(msg.Code, http.StatusInternalServerError)
	}

	level := slog.LevelWarn
	if statusCode >= 500 {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", chimw.GetReqID(r.Context()),
	)

	if wantsJSON(r) {
		writeJSON(w, statusCode, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	flash := templates.Flash{Kind: "error", Message: msg.Message, Action: msg.Action, Code: msg.Code}
	page := templates.UploadPage(s.targetOptions(r.Context()), formValue(r, "db_type"), flash)
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err)
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
