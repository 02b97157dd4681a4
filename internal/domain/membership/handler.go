package membership

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

// RegisterRoutes mounts the member endpoints on a clinic-scoped group.
func (h *Handler) RegisterRoutes(g *echo.Group, az *auth.Authorizer) {
	g.GET("/members", h.List, az.Require(auth.OpMemberRead))
	g.POST("/members", h.Add, az.Require(auth.OpMemberManage))
	g.PUT("/members/:userId", h.Grant, az.Require(auth.OpMemberManage))
	g.DELETE("/members/:userId", h.Revoke, az.Require(auth.OpMemberManage))
}

func (h *Handler) List(c echo.Context) error {
	members, err := h.svc.List(c.Request().Context(), auth.ClinicFromContext(c.Request().Context()))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, members)
}

type grantRequest struct {
	Role auth.Role `json:"role"`
}

type addRequest struct {
	UserID uuid.UUID `json:"userId"`
	Role   auth.Role `json:"role"`
}

func (h *Handler) Add(c echo.Context) error {
	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}

	m, err := h.svc.Grant(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), req.UserID, req.Role)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Grant(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
	}

	var req grantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	m, err := h.svc.Grant(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), userID, req.Role)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Revoke(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
	}

	if err := h.svc.Revoke(c.Request().Context(),
		auth.ClinicFromContext(c.Request().Context()), userID); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
