package shared

import (
	"encoding/json"
	"errors"
	"net/http"
)

// RespondJSON writes v as a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// RespondError translates an internal error into a JSON error body with
// the right status code.
func RespondError(w http.ResponseWriter, err error) {
	RespondJSON(w, statusFor(err), errorBody{Error: UserSafeMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrWindowExpired):
		return http.StatusGone
	case errors.Is(err, ErrMissingScheduleDate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnknownContentType):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
