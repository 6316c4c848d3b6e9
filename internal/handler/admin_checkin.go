package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/middleware"
	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
)

// AdminCheckinHandler serves the door check-in operation.
type AdminCheckinHandler struct {
	Attendees *repository.AttendeeRepo
}

// NewAdminCheckinHandler wires an AdminCheckinHandler.
func NewAdminCheckinHandler(a *repository.AttendeeRepo) *AdminCheckinHandler {
	return &AdminCheckinHandler{Attendees: a}
}

type checkinRequest struct {
	CheckedIn *bool `json:"checked_in"`
}

// Checkin handles PATCH /v1/admin/attendees/:id/checkin. The body may
// carry checked_in:false to undo a mistaken check-in; an absent field
// defaults to true. Repeating the same value is idempotent.
func (h *AdminCheckinHandler) Checkin(c echo.Context) error {
	perfID, ok := middleware.AdminScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session scope"})
	}

	var req checkinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	checked := true
	if req.CheckedIn != nil {
		checked = *req.CheckedIn
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	att, err := h.Attendees.GetByID(ctx, id)
	if err == repository.ErrAttendeeNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
	}
	if err != nil {
		return respondErr(c, err)
	}
	if att.PerformanceID != perfID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
	}

	if err := h.Attendees.SetCheckedIn(ctx, id, checked); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "checked_in": checked})
}
