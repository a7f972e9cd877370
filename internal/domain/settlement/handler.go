package settlement

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medinsure/medinsure/internal/domain/order"
	"github.com/medinsure/medinsure/internal/domain/reimbursement"
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
	read := api.Group("/settlements", auth.RequireRole("admin", "settlement", "cashier", "reviewer"))
	read.GET("", h.ListSettlements)
	read.GET("/statistics", h.Statistics)
	read.GET("/:id", h.GetSettlement)
	read.GET("/by-order/:orderID", h.GetCurrentByOrder)
	read.GET("/by-order/:orderID/audit", h.ListAudit)

	write := api.Group("/settlements", auth.RequireRole("admin", "settlement"))
	write.POST("/by-order/:orderID/calculate", h.Calculate)
	write.POST("/by-order/:orderID/recalculate", h.Recalculate)
}

func (h *Handler) Calculate(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	record, err := h.svc.CalculateForOrder(c.Request().Context(), orderID, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (h *Handler) Recalculate(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	var ov Overrides
	if err := c.Bind(&ov); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	record, err := h.svc.Recalculate(c.Request().Context(), orderID, ov, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (h *Handler) GetSettlement(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	record, err := h.svc.GetSettlement(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "settlement not found")
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) GetCurrentByOrder(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	record, err := h.svc.GetCurrentByOrder(c.Request().Context(), orderID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no settlement on record for order")
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) ListSettlements(c echo.Context) error {
	p := pagination.FromContext(c)
	filter := ListFilter{
		SettlementNo: c.QueryParam("settlement_no"),
	}
	if v := c.QueryParam("order_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid order_id")
		}
		filter.OrderID = id
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		filter.PatientID = id
	}
	if v := c.QueryParam("status"); v != "" {
		status, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		filter.Status = &status
	}
	var err error
	if filter.From, filter.To, err = timeRange(c); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	records, total, err := h.svc.ListSettlements(c.Request().Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, p.Limit, p.Offset))
}

func (h *Handler) ListAudit(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	entries, err := h.svc.ListAudit(c.Request().Context(), orderID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) Statistics(c echo.Context) error {
	from, to, err := timeRange(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	fromT := time.Time{}
	toT := time.Now()
	if from != nil {
		fromT = *from
	}
	if to != nil {
		toT = *to
	}
	stats, err := h.svc.Stats(c.Request().Context(), fromT, toT)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func timeRange(c echo.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, nil, errors.New("invalid from time, expected RFC3339")
		}
		from = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, nil, errors.New("invalid to time, expected RFC3339")
		}
		to = &t
	}
	return from, to, nil
}

func httpError(err error) error {
	var calcErr *CalculationError
	if errors.As(err, &calcErr) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var valErr *order.ValidationError
	if errors.As(err, &valErr) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var stateErr *order.InvalidStateError
	if errors.As(err, &stateErr) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if errors.Is(err, ErrPaidImmutable) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	var noMatch *reimbursement.NoMatchingLevelError
	if errors.As(err, &noMatch) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	var ambiguous *reimbursement.AmbiguousLevelError
	if errors.As(err, &ambiguous) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
