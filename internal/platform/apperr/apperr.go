// Package apperr defines the error kinds shared by the clinic domain
// services. Services return errors wrapping one of these sentinels; handlers
// convert them to transport responses with HTTPError at the outermost
// boundary and never branch on error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an entity that is absent or outside the caller's
	// clinic. The two cases are indistinguishable to the caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition marks an appointment status change that the
	// lifecycle graph does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict marks duplicate identifiers and last-admin violations.
	ErrConflict = errors.New("conflict")
	// ErrMissingClinicContext marks a clinic-scoped request that arrived
	// without an explicit clinic identifier.
	ErrMissingClinicContext = errors.New("missing clinic context")
	// ErrClinicAccessDenied marks a caller with no role in the clinic.
	ErrClinicAccessDenied = errors.New("no access to clinic")
	// ErrInsufficientRole marks a caller whose clinic role is outside the
	// allowed set for the operation.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrUnavailable marks an unreachable upstream dependency.
	ErrUnavailable = errors.New("upstream unavailable")
)

// E wraps kind with a formatted message so that errors.Is(err, kind) holds.
func E(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// HTTPError maps a service error to an echo.HTTPError. Unrecognized errors
// become 500s with a generic message so that internals never leak.
func HTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMissingClinicContext):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrClinicAccessDenied), errors.Is(err, ErrInsufficientRole):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
