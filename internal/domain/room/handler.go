package room

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinicops/internal/platform/apperr"
	"github.com/clinicops/clinicops/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the room endpoints on a clinic-scoped group.
func (h *Handler) RegisterRoutes(g *echo.Group, az *auth.Authorizer) {
	g.POST("/rooms", h.Create, az.Require(auth.OpRoomCreate))
	g.GET("/rooms", h.List, az.Require(auth.OpRoomRead))
	g.GET("/rooms/:id", h.Get, az.Require(auth.OpRoomRead))
	g.PATCH("/rooms/:id", h.Update, az.Require(auth.OpRoomUpdate))
	g.PATCH("/rooms/:id/status", h.SetStatus, az.Require(auth.OpRoomUpdate))
}

type createRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rm, err := h.svc.Create(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), req.Name, req.Description)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, rm)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rm, err := h.svc.Get(c.Request().Context(), auth.ClinicFromContext(c.Request().Context()), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, rm)
}

func (h *Handler) List(c echo.Context) error {
	rooms, err := h.svc.List(c.Request().Context(), auth.ClinicFromContext(c.Request().Context()))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, rooms)
}

type updateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
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

	rm, err := h.svc.Update(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), id, UpdateInput{
			Name:        req.Name,
			Description: req.Description,
		})
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, rm)
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rm, err := h.svc.SetStatus(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), id, req.Status)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, rm)
}
