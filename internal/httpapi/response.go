package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fekuna/omnipos-menu-service/internal/model"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorResponse{Error: msg})
}

// StatusFor maps the error classes of internal/model to HTTP codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrReopenNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrIntegrity):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err with its mapped status. Internal errors are not echoed to clients.
func Fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		Error(w, status, "internal error")
		return
	}
	Error(w, status, err.Error())
}

// Decode reads a JSON body into dst; a malformed body is a validation error.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.Validationf("malformed body: %v", err)
	}
	return nil
}

const SessionHeader = "X-Session-ID"

// SessionID identifies the customer session a cart belongs to. Requests without
// one are refused so that no two customers ever share a cart.
func SessionID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		return "", model.ErrSessionRequired
	}
	return id, nil
}
