package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	schoolAuth "github.com/MrEthical07/schoolAuth"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error             string `json:"error"`
	RetryAfterMinutes int    `json:"retryAfterMinutes,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind schoolAuth.ErrorKind) int {
	switch kind {
	case schoolAuth.KindUnauthorized:
		return http.StatusUnauthorized
	case schoolAuth.KindForbidden:
		return http.StatusForbidden
	case schoolAuth.KindBadRequest:
		return http.StatusBadRequest
	case schoolAuth.KindNotFound:
		return http.StatusNotFound
	case schoolAuth.KindConflict:
		return http.StatusConflict
	case schoolAuth.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as a JSON error response and logs it. Server
// faults are logged at Error with their cause and rendered as
// "server_error". A nil logger means [slog.Default].
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	kind := schoolAuth.KindOf(err)
	status := StatusFor(kind)
	body := ErrorBody{Error: schoolAuth.ErrorCode(err)}

	var rl *schoolAuth.RateLimitError
	if errors.As(err, &rl) {
		body.RetryAfterMinutes = rl.RetryAfterMinutes
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterMinutes*60))
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.LogAttrs(r.Context(), level, "request rejected",
		slog.String("request_id", schoolAuth.RequestIDFromContext(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", schoolAuth.ClientIPFromContext(r.Context())),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	)

	WriteJSON(w, status, body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
