package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/auth"
	"github.com/arpitmishra1547/Smart-Hospital-management/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the intake endpoints on public and the staff
// listing on the authenticated api group.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/patients/register", h.Register)
	public.POST("/patients/lookup", h.Lookup)
	public.GET("/patients/:id", h.GetPatient)

	staff := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleAuthority))
	staff.GET("/patients", h.ListPatients)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Patient registered successfully",
		"patientId": p.PatientID,
		"patient":   p,
	})
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"patient": p,
	})
}

type lookupRequest struct {
	MobileNumber string `json:"mobileNumber"`
}

func (h *Handler) Lookup(c echo.Context) error {
	var req lookupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, ok, err := h.svc.FindByMobile(c.Request().Context(), req.MobileNumber)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"success": true, "exists": ok}
	if ok {
		body["patient"] = p
	}
	return c.JSON(http.StatusOK, body)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
