// Package httpx provides the JSON response envelope and request decoding helpers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/eventhub/eventhub/internal/shared"
)

// Envelope is the uniform body of every failure response.
type Envelope struct {
	Message any                 `json:"message"`
	Status  int                 `json:"status"`
	Code    string              `json:"code,omitempty"`
	Data    any                 `json:"data"`
	Error   string              `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NoContent writes a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// PermissionDenied writes the fixed 403 body used for capability denials.
func PermissionDenied(w http.ResponseWriter) {
	JSON(w, http.StatusForbidden, Envelope{
		Message: shared.PermissionDeniedMessage,
		Status:  http.StatusForbidden,
		Data:    nil,
		Error:   shared.PermissionDeniedMessage,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
// Malformed bodies are reported as ErrInvalidRequestFormat; an empty body leaves target untouched.
func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return shared.NewValidationError().Add(typeErr.Field, shared.ErrInvalidDataType.Message)
		}
		return shared.ErrInvalidRequestFormat
	}
	return nil
}
