package scheduling

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/schedules")
	g.GET("", h.ListSchedules, auth.RequireRole(auth.RoleDoctor, auth.RoleAuthority))
	g.POST("", h.Dispatch, auth.RequireRole(auth.RoleAuthority))
}

func (h *Handler) ListSchedules(c echo.Context) error {
	f := Filter{
		ScheduleID: c.QueryParam("scheduleId"),
		RoomID:     c.QueryParam("roomId"),
		DoctorID:   c.QueryParam("doctorId"),
		Date:       c.QueryParam("date"),
		Week:       c.QueryParam("week"),
		Status:     Status(c.QueryParam("status")),
	}
	items, err := h.svc.ListSchedules(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Schedule{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"total":     len(items),
		"schedules": items,
	})
}

// Dispatch routes a POST body to the operation named by its action field.
func (h *Handler) Dispatch(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	var env struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	switch env.Action {
	case "add":
		return h.add(c, body)
	case "update":
		return h.update(c, body)
	case "remove":
		return h.remove(c, body)
	case "emergencyReassign":
		return h.reassign(c, body)
	case "bulkUpdate":
		return h.bulkUpdate(c, body)
	case "":
		return missing("action")
	default:
		return ErrInvalidAction.Withf("Invalid action %q", env.Action).With("action", env.Action)
	}
}

func decode(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (h *Handler) add(c echo.Context, body []byte) error {
	var in CreateInput
	if err := decode(body, &in); err != nil {
		return err
	}
	res, err := h.svc.CreateSchedule(c.Request().Context(), in)
	if err != nil {
		return err
	}
	msg := "Schedule added successfully"
	if n := len(res.Instances); n > 0 {
		msg = fmt.Sprintf("Schedule added successfully with %d recurring instances", n)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":            true,
		"message":            msg,
		"schedule":           res.Schedule,
		"recurringInstances": len(res.Instances),
	})
}

func (h *Handler) update(c echo.Context, body []byte) error {
	var p Patch
	if err := decode(body, &p); err != nil {
		return err
	}
	s, err := h.svc.UpdateSchedule(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Schedule updated successfully",
		"schedule": s,
	})
}

func (h *Handler) remove(c echo.Context, body []byte) error {
	var in struct {
		ScheduleID string `json:"scheduleId"`
	}
	if err := decode(body, &in); err != nil {
		return err
	}
	if _, err := h.svc.RemoveSchedule(c.Request().Context(), in.ScheduleID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Schedule removed successfully",
	})
}

func (h *Handler) reassign(c echo.Context, body []byte) error {
	var in ReassignInput
	if err := decode(body, &in); err != nil {
		return err
	}
	s, err := h.svc.EmergencyReassign(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Emergency reassignment completed successfully",
		"schedule": s,
	})
}

func (h *Handler) bulkUpdate(c echo.Context, body []byte) error {
	var in struct {
		Schedules []Patch `json:"schedules"`
	}
	if err := decode(body, &in); err != nil {
		return err
	}
	n, err := h.svc.BulkUpdate(c.Request().Context(), in.Schedules)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       fmt.Sprintf("Updated %d schedules successfully", n),
		"modifiedCount": n,
	})
}
