package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/booking"
	"github.com/stagedoor/theatre-ticket-reservation/internal/middleware"
	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
)

// AdminPerformanceHandler serves administrative edits to the
// performance itself: the per-requester reservation cap, the
// reservation-open instant and the post-show survey link. The session
// scope must match the performance being edited.
type AdminPerformanceHandler struct {
	Guard        *booking.Guard
	Performances *repository.PerformanceRepo
}

// NewAdminPerformanceHandler wires an AdminPerformanceHandler.
func NewAdminPerformanceHandler(guard *booking.Guard, p *repository.PerformanceRepo) *AdminPerformanceHandler {
	return &AdminPerformanceHandler{Guard: guard, Performances: p}
}

type updatePerformanceRequest struct {
	MaxActive *int    `json:"max_active"`
	OpensAt   *string `json:"opens_at"`
	SurveyURL *string `json:"survey_url"`
}

// Update handles PATCH /v1/admin/performances/:id. Fields are
// optional; absent fields are left untouched. Cap monotonicity and
// timestamp validity are enforced by the guard.
func (h *AdminPerformanceHandler) Update(c echo.Context) error {
	id := c.Param("id")
	perfID, ok := middleware.AdminScope(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session scope"})
	}
	if id != perfID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "performance not found"})
	}

	var req updatePerformanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MaxActive == nil && req.OpensAt == nil && req.SurveyURL == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	ctx := c.Request().Context()
	if req.MaxActive != nil {
		if err := h.Guard.SetMaxActive(ctx, id, *req.MaxActive); err != nil {
			return respondErr(c, err)
		}
	}
	if req.OpensAt != nil {
		if err := h.Guard.SetOpensAt(ctx, id, *req.OpensAt); err != nil {
			return respondErr(c, err)
		}
	}
	if req.SurveyURL != nil {
		survey := req.SurveyURL
		if *survey == "" {
			survey = nil // empty string clears the link
		}
		if err := h.Guard.SetSurveyURL(ctx, id, survey); err != nil {
			return respondErr(c, err)
		}
	}

	perf, err := h.Performances.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":         perf.ID,
		"title":      perf.Title,
		"max_active": perf.MaxActive,
		"opens_at":   perf.ReservationOpensAt,
		"survey_url": perf.SurveyURL,
	})
}
