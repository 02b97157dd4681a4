package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinicops/internal/platform/auth"
)

// Recovery converts handler panics into opaque 500 responses. The log line
// carries enough request context to find the failing clinic operation.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					rid, _ := c.Get("request_id").(string)
					evt := logger.Error().
						Str("request_id", rid).
						Str("method", c.Request().Method).
						Str("path", c.Request().URL.Path)
					if clinicID := auth.ClinicFromContext(c.Request().Context()); clinicID != uuid.Nil {
						evt = evt.Str("clinic_id", clinicID.String())
					}
					evt.
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()
			return next(c)
		}
	}
}
