package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-auth-flow/internal/domain"
	"github.com/go-auth-flow/internal/ui"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FlowEnvelope is the JSON form of a flow screen.
type FlowEnvelope struct {
	AuthState domain.AuthState `json:"auth_state"`
	Redirect  string           `json:"redirect,omitempty"`
	View      *ui.Node         `json:"view,omitempty"`
	Errors    []string         `json:"errors,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// httpError writes err with its mapped status. Unmapped errors are logged
// and reported without detail.
func httpError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
