package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicops/clinicops/internal/platform/auth"
)

// Logger emits one structured line per request. The acting clinic and user
// are read after the handler ran, so clinic-scoped routes carry both even
// though their middleware resolves them later in the chain.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path)

			ctx := c.Request().Context()
			if clinicID := auth.ClinicFromContext(ctx); clinicID != uuid.Nil {
				evt = evt.Str("clinic_id", clinicID.String())
			}
			if userID := auth.UserIDFromContext(ctx); userID != "" {
				evt = evt.Str("user_id", userID)
			}

			evt.
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
