package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-crm/meridian/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Storage-layer detail is
// never surfaced to the caller.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "record not found")
	case errors.Is(err, shared.ErrInvalidStatus):
		Problem(w, http.StatusUnprocessableEntity, "Invalid Status", err.Error())
	case errors.Is(err, shared.ErrReferentialIntegrity):
		Problem(w, http.StatusUnprocessableEntity, "Invalid Reference", err.Error())
	case errors.Is(err, shared.ErrDuplicateCode):
		Problem(w, http.StatusConflict, "Duplicate Code", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
