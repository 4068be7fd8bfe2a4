package httpx

import (
	"errors"
	"net/http"

	"github.com/eventhub/eventhub/internal/shared"
)

// RespondError renders err as the uniform envelope. Errors outside the
// catalogue are coerced into API004 so internal detail never reaches the caller.
func RespondError(w http.ResponseWriter, err error) {
	var vErr *shared.ValidationError
	if errors.As(err, &vErr) {
		code := vErr.Code
		if code == "" {
			code = shared.ErrRequiredField.Code
		}
		JSON(w, http.StatusBadRequest, Envelope{
			Message: vErr.Messages(),
			Status:  http.StatusBadRequest,
			Code:    code,
			Errors:  vErr.Fields,
		})
		return
	}

	apiErr := shared.ErrServerError
	var known *shared.APIError
	if errors.As(err, &known) {
		apiErr = known
	}
	JSON(w, apiErr.Status, Envelope{
		Message: apiErr.Message,
		Status:  apiErr.Status,
		Code:    apiErr.Code,
	})
}

// IsCatalogued reports whether err maps to a known entry rather than API004.
func IsCatalogued(err error) bool {
	var vErr *shared.ValidationError
	var apiErr *shared.APIError
	return errors.As(err, &vErr) || (errors.As(err, &apiErr) && apiErr.Code != shared.ErrServerError.Code)
}
