package shared

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is a catalogued failure with a stable code and a user-facing message.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches catalogue entries by code so wrapped copies still compare equal.
func (e *APIError) Is(target error) bool {
	var other *APIError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func apiError(code, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, Status: status}
}

// Request-level and authentication token failures.
var (
	ErrInvalidAuthToken     = apiError("API001", "Invalid authentication token", http.StatusUnauthorized)
	ErrResourceNotFound     = apiError("API002", "Resource not found", http.StatusNotFound)
	ErrInvalidRequestFormat = apiError("API003", "Invalid request format", http.StatusBadRequest)
	ErrServerError          = apiError("API004", "Internal server error", http.StatusInternalServerError)
	ErrUnauthorizedAccess   = apiError("API005", "Unauthorized access", http.StatusForbidden)
	ErrExpiredAuthToken     = apiError("API006", "Expired authentication token, please log in again", http.StatusUnauthorized)
	ErrRoleInUse            = apiError("API007", "Cannot delete a role that is in use", http.StatusBadRequest)
)

// Form and payload validation failures.
var (
	ErrRequiredField        = apiError("FORM001", "Required field missing", http.StatusBadRequest)
	ErrInvalidEmailFormat   = apiError("FORM002", "Invalid email format", http.StatusBadRequest)
	ErrPasswordLength       = apiError("FORM003", "Password must contain at least 8 characters", http.StatusBadRequest)
	ErrPasswordMismatch     = apiError("FORM004", "Passwords do not match", http.StatusBadRequest)
	ErrInvalidDateFormat    = apiError("FORM005", "Invalid date format", http.StatusBadRequest)
	ErrInvalidID            = apiError("FORM006", "Invalid ID", http.StatusBadRequest)
	ErrInvalidDataType      = apiError("FORM007", "Invalid data type", http.StatusBadRequest)
	ErrEventDateInPast      = apiError("FORM008", "The event date cannot be in the past", http.StatusBadRequest)
	ErrDuplicateReservation = apiError("FORM009", "You already have a reservation for this event.", http.StatusBadRequest)
	ErrNoAvailableSlots     = apiError("FORM010", "This event has no available slots.", http.StatusBadRequest)
	ErrMissingDescription   = apiError("FORM011", "Featured events require a description", http.StatusBadRequest)
	ErrDuplicateEntry       = apiError("FORM012", "A record with the same unique value already exists", http.StatusBadRequest)
)

// Authentication and account failures.
var (
	ErrInvalidCredentials = apiError("AUTH001", "Incorrect email or password", http.StatusUnauthorized)
	ErrEmailNotFound      = apiError("AUTH002", "Email not found", http.StatusUnauthorized)
	ErrInvalidPassword    = apiError("AUTH003", "The password is not valid", http.StatusUnauthorized)
	ErrEmailExists        = apiError("AUTH004", "Email already exists", http.StatusConflict)
	ErrInactiveAccount    = apiError("AUTH005", "Inactive user", http.StatusUnauthorized)
	ErrInvalidRole        = apiError("AUTH006", "Invalid role", http.StatusBadRequest)
)

// Generic HTTP failures.
var (
	ErrHTTPNotFound           = apiError("404", "Not found", http.StatusNotFound)
	ErrHTTPBadRequest         = apiError("400", "Bad request", http.StatusBadRequest)
	ErrHTTPMethodNotAllowed   = apiError("405", "Method not allowed", http.StatusMethodNotAllowed)
	ErrHTTPInternal           = apiError("500", "Internal server error", http.StatusInternalServerError)
	ErrHTTPServiceUnavailable = apiError("503", "Service unavailable", http.StatusServiceUnavailable)
	ErrHTTPTooManyRequests    = apiError("429", "Request was throttled", http.StatusTooManyRequests)
	ErrHTTPGatewayTimeout     = apiError("504", "Gateway timeout while trying to access the resource", http.StatusGatewayTimeout)
)

// PermissionDeniedMessage is the fixed body message for capability denials.
const PermissionDeniedMessage = "Permission denied"

// ValidationError carries per-field messages for a rejected payload.
type ValidationError struct {
	Code   string
	Fields map[string][]string
}

// NewValidationError builds a FORM001 validation error.
func NewValidationError() *ValidationError {
	return &ValidationError{Code: ErrRequiredField.Code, Fields: map[string][]string{}}
}

// Add records a message for field.
func (v *ValidationError) Add(field, message string) *ValidationError {
	v.Fields[field] = append(v.Fields[field], message)
	return v
}

// Empty reports whether no field failed.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// Messages flattens the field messages as "field: message", sorted by field.
func (v *ValidationError) Messages() []string {
	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, msg := range v.Fields[f] {
			out = append(out, fmt.Sprintf("%s: %s", f, msg))
		}
	}
	return out
}

func (v *ValidationError) Error() string {
	return "validation failed: " + strings.Join(v.Messages(), "; ")
}

// FieldError is shorthand for a validation error on one field.
func FieldError(field, message string) error {
	return NewValidationError().Add(field, message)
}

// UserSafeMessage returns the catalogued message for err, or the generic server error message.
func UserSafeMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return strings.Join(vErr.Messages(), "; ")
	}
	return ErrServerError.Message
}

// DuplicateError reports a unique-value collision on field as FORM012.
func DuplicateError(field, message string) error {
	v := NewValidationError().Add(field, message)
	v.Code = ErrDuplicateEntry.Code
	return v
}
