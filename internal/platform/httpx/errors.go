package httpx

import (
	"errors"
	"net/http"

	"github.com/seein-app/seein-backend/internal/shared"
)

// RespondError maps domain errors onto the HTTP error taxonomy: invalid input
// becomes 400, missing tokens and bad credentials 401, unknown users 404, and
// everything else an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidEmail), errors.Is(err, shared.ErrDuplicateEmail):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrUnauthorized):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	default:
		Error(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
