package token

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

func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/patients/generate-token", h.GenerateToken)
	public.POST("/patients/cancel-token", h.CancelToken)

	tokens := api.Group("/tokens")
	tokens.POST("/complete", h.CompleteToken, auth.RequireRole(auth.RoleDoctor))
	tokens.GET("/verify", h.VerifyToken, auth.RequireRole(auth.RoleDoctor))
	tokens.GET("", h.ListTokens, auth.RequireRole(auth.RoleDoctor, auth.RoleAuthority))
}

func (h *Handler) GenerateToken(c echo.Context) error {
	var in RequestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t, err := h.svc.RequestToken(c.Request().Context(), in)
	if err != nil {
		return err
	}
	msg := "Token generated successfully"
	if t.IsTestHospital {
		msg = "Token generated successfully for Test Hospital"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": msg,
		"token": map[string]interface{}{
			"tokenNumber":    t.TokenNumber,
			"patientName":    t.PatientName,
			"hospitalName":   t.HospitalName,
			"department":     t.Department,
			"city":           t.City,
			"date":           t.IssueDate,
			"generatedAt":    t.GeneratedAt,
			"distance":       t.DistanceMeters,
			"isTestHospital": t.IsTestHospital,
		},
	})
}

func (h *Handler) CancelToken(c echo.Context) error {
	var in CancelInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t, err := h.svc.CancelToken(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Token cancelled successfully",
		"cancelledToken": map[string]interface{}{
			"tokenNumber": t.TokenNumber,
			"cancelledAt": t.CancelledAt,
		},
	})
}

func (h *Handler) CompleteToken(c echo.Context) error {
	var in CompleteInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t, err := h.svc.CompleteToken(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Token completed successfully",
		"completedToken": map[string]interface{}{
			"tokenNumber":    t.TokenNumber,
			"patientId":      t.PatientID,
			"patientName":    t.PatientName,
			"completedAt":    t.CompletedAt,
			"doctorId":       t.DoctorID,
			"prescriptionId": t.PrescriptionID,
		},
	})
}

func (h *Handler) VerifyToken(c echo.Context) error {
	t, p, err := h.svc.VerifyToken(c.Request().Context(), c.QueryParam("tokenNumber"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   t,
		"patient": p,
	})
}

func (h *Handler) ListTokens(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		HospitalName: c.QueryParam("hospitalName"),
		Department:   c.QueryParam("department"),
		Date:         c.QueryParam("date"),
		Status:       Status(c.QueryParam("status")),
		Limit:        pg.Limit,
		Offset:       pg.Offset,
	}
	items, total, err := h.svc.ListTokens(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Token{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
