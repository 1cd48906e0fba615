package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gridnote/gridnote/internal/core"
	"github.com/gridnote/gridnote/internal/logging"
)

// errorBody is the JSON shape of every error response. The raw technical
// error stays in the server log keyed by request ID; the client only sees
// the mapped message and support code.
type errorBody struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// errInvalidInput marks request decode failures so they map to 400.
var errInvalidInput = errors.New("invalid request body")

// statusFor picks an HTTP status from the service sentinels.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrPageNotFound), errors.Is(err, core.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrEmptyImport), errors.Is(err, errInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrPageFull):
		return http.StatusConflict
	case errors.Is(err, core.ErrAIDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes the user-facing
// rendering of it.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err, "status", status, "code", msg.Code)
	} else {
		logger.Info("request rejected", "error", err, "status", status, "code", msg.Code)
	}

	writeJSON(w, status, errorBody{Error: msg.Message, Action: msg.Action, Code: msg.Code})
}

// writeJSON encodes v and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent, nothing to do but log.
		slog.Error("json encode failed", "error", err)
	}
}
