package catalog

import (
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
	drugs := api.Group("/drugs", auth.RequireRole("admin", "clerk"))
	drugs.GET("", h.ListDrugs)
	drugs.GET("/:id", h.GetDrug)
	drugs.POST("", h.CreateDrug)
	drugs.PUT("/:id", h.UpdateDrug)
	drugs.DELETE("/:id", h.DeleteDrug)
	drugs.PATCH("/:id/status", h.SetDrugStatus)

	equipment := api.Group("/equipment", auth.RequireRole("admin", "clerk"))
	equipment.GET("", h.ListEquipment)
	equipment.GET("/:id", h.GetEquipment)
	equipment.POST("", h.CreateEquipment)
	equipment.PUT("/:id", h.UpdateEquipment)
	equipment.DELETE("/:id", h.DeleteEquipment)
	equipment.PATCH("/:id/status", h.SetEquipmentStatus)

	services := api.Group("/services", auth.RequireRole("admin", "clerk"))
	services.GET("", h.ListServices)
	services.GET("/:id", h.GetService)
	services.POST("", h.CreateService)
	services.PUT("/:id", h.UpdateService)
	services.DELETE("/:id", h.DeleteService)
	services.PATCH("/:id/status", h.SetServiceStatus)
}

func listFilterFromContext(c echo.Context) (ListFilter, error) {
	filter := ListFilter{Keyword: c.QueryParam("keyword")}
	if v := c.QueryParam("status"); v != "" {
		status, err := strconv.Atoi(v)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		filter.Status = &status
	}
	return filter, nil
}

func statusBody(c echo.Context) (int, error) {
	var body struct {
		Status int `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return body.Status, nil
}

func (h *Handler) CreateDrug(c echo.Context) error {
	var d Drug
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDrug(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDrug(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "drug not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Drug
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDrug(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDrug(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDrugs(c echo.Context) error {
	p := pagination.FromContext(c)
	filter, err := listFilterFromContext(c)
	if err != nil {
		return err
	}
	drugs, total, err := h.svc.ListDrugs(c.Request().Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(drugs, total, p.Limit, p.Offset))
}

func (h *Handler) SetDrugStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status, err := statusBody(c)
	if err != nil {
		return err
	}
	if err := h.svc.SetDrugStatus(c.Request().Context(), id, status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateEquipment(c echo.Context) error {
	var e Equipment
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateEquipment(c.Request().Context(), &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEquipment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.GetEquipment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "equipment not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) UpdateEquipment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var e Equipment
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.ID = id
	if err := h.svc.UpdateEquipment(c.Request().Context(), &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEquipment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteEquipment(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListEquipment(c echo.Context) error {
	p := pagination.FromContext(c)
	filter, err := listFilterFromContext(c)
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListEquipment(c.Request().Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) SetEquipmentStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status, err := statusBody(c)
	if err != nil {
		return err
	}
	if err := h.svc.SetEquipmentStatus(c.Request().Context(), id, status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateService(c echo.Context) error {
	var m MedicalService
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateService(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetService(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "service not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m MedicalService
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateService(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteService(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListServices(c echo.Context) error {
	p := pagination.FromContext(c)
	filter, err := listFilterFromContext(c)
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListServices(c.Request().Context(), filter, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) SetServiceStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status, err := statusBody(c)
	if err != nil {
		return err
	}
	if err := h.svc.SetServiceStatus(c.Request().Context(), id, status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
