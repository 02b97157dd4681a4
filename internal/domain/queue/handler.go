package queue

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinicops/internal/domain/appointment"
	"github.com/clinicops/clinicops/internal/platform/apperr"
	"github.com/clinicops/clinicops/internal/platform/auth"
)

type Handler struct {
	composer *Composer
}

func NewHandler(composer *Composer) *Handler {
	return &Handler{composer: composer}
}

// RegisterRoutes mounts the queue endpoint on a clinic-scoped group.
func (h *Handler) RegisterRoutes(g *echo.Group, az *auth.Authorizer) {
	g.GET("/queues", h.GetQueues, az.Require(auth.OpQueueRead))
}

func (h *Handler) GetQueues(c echo.Context) error {
	var f appointment.Filters
	if raw := c.QueryParam("room_id"); raw != "" {
		roomID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid room_id")
		}
		f.RoomID = &roomID
	}
	if raw := c.QueryParam("doctor_id"); raw != "" {
		doctorID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		f.DoctorID = &doctorID
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := appointment.Status(raw)
		if !appointment.ValidStatus(status) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = &status
	}
	if raw := c.QueryParam("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		f.Date = &date
	}

	opts := Options{SuppressNext: c.QueryParam("suppress_next") == "true"}

	snapshot, err := h.composer.Compose(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), f, opts)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, snapshot)
}
