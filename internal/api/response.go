package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/paintstock/internal/inventory"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response in the shape clients expect.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, failure{Error: message})
}

// serviceError maps a domain failure to its status code. Anything else is
// a fault: it is logged and reported as a bare 500.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var e *inventory.Error
	if errors.As(err, &e) {
		jsonError(w, kindStatus(e.Kind), e.Message)
		return
	}
	slog.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", RequestID(r.Context()),
		"error", err,
	)
	jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func kindStatus(k inventory.Kind) int {
	switch k {
	case inventory.KindNotFound:
		return http.StatusNotFound
	case inventory.KindDuplicateID:
		return http.StatusConflict
	case inventory.KindNotAuthorized:
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}
