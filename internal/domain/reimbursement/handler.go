package reimbursement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medinsure/medinsure/internal/platform/auth"
	"github.com/medinsure/medinsure/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/levels", auth.RequireRole("admin", "reimbursement"))
	g.GET("", h.ListLevels)
	g.GET("/effective", h.ListEffective)
	g.GET("/match", h.MatchLevel)
	g.GET("/:id", h.GetLevel)
	g.POST("", h.CreateLevel)
	g.PUT("/:id", h.UpdateLevel)
	g.DELETE("/:id", h.DeleteLevel)
	g.POST("/:id/copy", h.CopyLevel)
	g.PATCH("/:id/status", h.SetLevelStatus)
}

func (h *Handler) CreateLevel(c echo.Context) error {
	var l Level
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	l.CreateBy = &actor
	if err := h.svc.CreateLevel(c.Request().Context(), &l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLevel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := h.svc.GetLevel(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "level not found")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) UpdateLevel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var l Level
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = id
	actor := auth.UserIDFromContext(c.Request().Context())
	l.UpdateBy = &actor
	if err := h.svc.UpdateLevel(c.Request().Context(), &l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) DeleteLevel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteLevel(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListLevels(c echo.Context) error {
	p := pagination.FromContext(c)
	filter := ListFilter{
		InsuranceType: c.QueryParam("insurance_type"),
		HospitalLevel: c.QueryParam("hospital_level"),
		Keyword:       c.QueryParam("keyword"),
	}
	if statusStr := c.QueryParam("status"); statusStr != "" {
		status, err := strconv.Atoi(statusStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		filter.Status = &status
	}
	levels, total, err := h.svc.ListLevels(c.Request().Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(levels, total, p.Limit, p.Offset))
}

func (h *Handler) CopyLevel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	dup, err := h.svc.CopyLevel(c.Request().Context(), id, actor)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, dup)
}

func (h *Handler) SetLevelStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status int `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.SetLevelStatus(c.Request().Context(), id, body.Status, actor); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListEffective(c echo.Context) error {
	levels, err := h.svc.ListEffective(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, levels)
}

func (h *Handler) MatchLevel(c echo.Context) error {
	insuranceType := c.QueryParam("insurance_type")
	hospitalLevel := c.QueryParam("hospital_level")
	if insuranceType == "" || hospitalLevel == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "insurance_type and hospital_level are required")
	}
	level, err := h.svc.MatchEffective(c.Request().Context(), insuranceType, hospitalLevel)
	if err != nil {
		var noMatch *NoMatchingLevelError
		if errors.As(err, &noMatch) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		var ambiguous *AmbiguousLevelError
		if errors.As(err, &ambiguous) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, level)
}
