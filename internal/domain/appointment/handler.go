package appointment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinicops/internal/platform/apperr"
	"github.com/clinicops/clinicops/internal/platform/auth"
	"github.com/clinicops/clinicops/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the appointment endpoints on a clinic-scoped group.
func (h *Handler) RegisterRoutes(g *echo.Group, az *auth.Authorizer) {
	g.POST("/appointments", h.Create, az.Require(auth.OpAppointmentCreate))
	g.GET("/appointments", h.List, az.Require(auth.OpAppointmentRead))
	g.GET("/appointments/:id", h.Get, az.Require(auth.OpAppointmentRead))
	g.PATCH("/appointments/:id", h.Update, az.Require(auth.OpAppointmentUpdate))
	g.POST("/appointments/:id/transition", h.Transition, az.Require(auth.OpAppointmentTransition))
}

type createRequest struct {
	PatientID       uuid.UUID  `json:"patient_id"`
	DoctorID        *uuid.UUID `json:"doctor_id,omitempty"`
	RoomID          *uuid.UUID `json:"room_id,omitempty"`
	AppointmentTime *time.Time `json:"appointment_time,omitempty"`
	Source          Source     `json:"source,omitempty"`
	Note            *string    `json:"note,omitempty"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Create(c.Request().Context(), auth.ClinicFromContext(c.Request().Context()), CreateInput{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		RoomID:          req.RoomID,
		AppointmentTime: req.AppointmentTime,
		Source:          req.Source,
		Note:            req.Note,
	})
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := h.svc.Get(c.Request().Context(), auth.ClinicFromContext(c.Request().Context()), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f Filters
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
		status := Status(raw)
		if !ValidStatus(status) {
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

	items, total, err := h.svc.List(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type transitionRequest struct {
	Status Status  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Transition(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), id, req.Status, req.Reason)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type updateRequest struct {
	DoctorID        *uuid.UUID `json:"doctor_id,omitempty"`
	RoomID          *uuid.UUID `json:"room_id,omitempty"`
	AppointmentTime *time.Time `json:"appointment_time,omitempty"`
	Note            *string    `json:"note,omitempty"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Update(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), id, UpdateInput{
			DoctorID:        req.DoctorID,
			RoomID:          req.RoomID,
			AppointmentTime: req.AppointmentTime,
			Note:            req.Note,
		})
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}
