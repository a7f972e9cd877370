package order

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
	// Read endpoints
	read := api.Group("/orders", auth.RequireRole("admin", "clerk", "reviewer", "cashier"))
	read.GET("", h.ListOrders)
	read.GET("/:id", h.GetOrder)
	read.GET("/by-no/:orderNo", h.GetOrderByNo)

	// Intake and lifecycle endpoints
	write := api.Group("/orders", auth.RequireRole("admin", "clerk"))
	write.POST("", h.CreateOrder)
	write.PUT("/:id", h.UpdateOrder)
	write.POST("/:id/submit", h.SubmitOrder)
	write.POST("/:id/cancel", h.CancelOrder)

	// Review endpoints
	review := api.Group("/orders", auth.RequireRole("admin", "reviewer"))
	review.POST("/:id/approve", h.ApproveOrder)
	review.POST("/:id/reject", h.RejectOrder)
}

// httpError maps lifecycle errors onto HTTP statuses: validation problems are
// 400, illegal transitions are 409.
func httpError(err error) error {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var sErr *InvalidStateError
	if errors.As(err, &sErr) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var o MedicalOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	o.CreateBy = &actor
	if err := h.svc.CreateOrder(c.Request().Context(), &o); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) GetOrderByNo(c echo.Context) error {
	o, err := h.svc.GetOrderByNo(c.Request().Context(), c.Param("orderNo"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) UpdateOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var o MedicalOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.ID = id
	actor := auth.UserIDFromContext(c.Request().Context())
	o.UpdateBy = &actor
	if err := h.svc.UpdateOrder(c.Request().Context(), &o); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrders(c echo.Context) error {
	p := pagination.FromContext(c)
	filter := ListFilter{
		OrderNo: c.QueryParam("order_no"),
		Keyword: c.QueryParam("keyword"),
	}
	if pid := c.QueryParam("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		filter.PatientID = id
	}
	if statusStr := c.QueryParam("status"); statusStr != "" {
		status, err := strconv.Atoi(statusStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		filter.Status = &status
	}
	orders, total, err := h.svc.ListOrders(c.Request().Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, p.Limit, p.Offset))
}

func (h *Handler) SubmitOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	o, err := h.svc.Submit(c.Request().Context(), id, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ApproveOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Result string `json:"result"`
		Remark string `json:"remark"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	o, err := h.svc.Approve(c.Request().Context(), id, body.Result, body.Remark, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) RejectOrder(c echo.Context) error {
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
	o, err := h.svc.Reject(c.Request().Context(), id, body.Reason, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) CancelOrder(c echo.Context) error {
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
	o, err := h.svc.Cancel(c.Request().Context(), id, body.Reason, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, o)
}
