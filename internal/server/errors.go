package server

import (
	"errors"
	"net/http"

	"github.com/swarmdock-dev/swarmdock/internal/runner"
	"github.com/swarmdock-dev/swarmdock/internal/store"
)

// httpStatus classifies an error into an HTTP status code. Validation and
// missing-credential failures are client errors; unknown resources are 404;
// everything else (persistence, process machinery) is a 500. Nothing is
// retried anywhere.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, runner.ErrNoCredential):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorFor writes the JSON error body for err with its classified status.
func writeErrorFor(w http.ResponseWriter, err error) {
	writeError(w, httpStatus(err), err.Error())
}
