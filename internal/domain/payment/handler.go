package payment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medinsure/medinsure/internal/domain/order"
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
	read := api.Group("/payments", auth.RequireRole("admin", "cashier", "settlement"))
	read.GET("", h.ListPayments)
	read.GET("/:id", h.GetPayment)
	read.GET("/by-settlement/:settlementID", h.ListBySettlement)

	write := api.Group("/payments", auth.RequireRole("admin", "cashier"))
	write.POST("/simulate", h.Simulate)
	write.POST("/:id/reverse", h.Reverse)
}

func (h *Handler) Simulate(c echo.Context) error {
	var req SimulateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrderID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "order_id is required")
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	rec, err := h.svc.Simulate(c.Request().Context(), req, actor)
	if err != nil {
		var valErr *order.ValidationError
		if errors.As(err, &valErr) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		var stateErr *order.InvalidStateError
		if errors.As(err, &stateErr) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Reverse(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	rec, err := h.svc.Reverse(c.Request().Context(), id, body.Reason, actor)
	if err != nil {
		if errors.Is(err, ErrAlreadyReversed) || errors.Is(err, ErrNotReversible) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetPayment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "payment not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListPayments(c echo.Context) error {
	p := pagination.FromContext(c)
	filter := ListFilter{Status: c.QueryParam("status")}
	if v := c.QueryParam("settlement_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid settlement_id")
		}
		filter.SettlementID = id
	}
	if v := c.QueryParam("order_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid order_id")
		}
		filter.OrderID = id
	}
	records, total, err := h.svc.ListPayments(c.Request().Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p.Limit, p.Offset))
}

func (h *Handler) ListBySettlement(c echo.Context) error {
	settlementID, err := uuid.Parse(c.Param("settlementID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid settlement id")
	}
	records, err := h.svc.ListBySettlement(c.Request().Context(), settlementID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}
