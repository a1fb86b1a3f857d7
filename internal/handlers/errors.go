package handlers

import (
	"log"
	"net/http"

	"familyledger/internal/apperrors"
)

// errUnauthenticated is returned when a handler runs without RequireAuth
// having placed a user id in the context.
var errUnauthenticated = apperrors.Unauthorized("authentication required")

// statusForKind maps a failure classification to an HTTP status code.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindBadRequest:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInsufficientFunds:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForKind(apperrors.KindOf(err))

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", r.Method, r.URL.Path, err)
		message = "internal server error"
	}

	respondJSON(w, status, map[string]string{"error": message})
}

func respondBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, apperrors.BadRequest(message))
}
