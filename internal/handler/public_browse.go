package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
)

// BrowseHandler serves the public read surface: performance details
// and per-schedule seat availability. Responses are cacheable; the
// router wraps these routes with the short-TTL response cache.
type BrowseHandler struct {
	Performances *repository.PerformanceRepo
	Schedules    *repository.ScheduleRepo
}

// NewBrowseHandler wires a BrowseHandler.
func NewBrowseHandler(p *repository.PerformanceRepo, s *repository.ScheduleRepo) *BrowseHandler {
	return &BrowseHandler{Performances: p, Schedules: s}
}

type scheduleView struct {
	ID             string `json:"id"`
	ShowDate       string `json:"show_date"`
	ShowTime       string `json:"show_time"`
	TotalSeats     int    `json:"total_seats"`
	RemainingSeats int    `json:"remaining_seats"`
}

// ListSchedules handles GET /v1/performances/:id/schedules. It
// returns the performance title, whether sales are open, and every
// schedule with its live remaining-seat count.
func (h *BrowseHandler) ListSchedules(c echo.Context) error {
	ctx := c.Request().Context()
	perfID := c.Param("id")

	perf, err := h.Performances.GetByID(ctx, perfID)
	if err == repository.ErrPerformanceNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "performance not found"})
	}
	if err != nil {
		return respondErr(c, err)
	}

	scheds, err := h.Schedules.ListByPerformance(ctx, perfID)
	if err != nil {
		return respondErr(c, err)
	}

	views := make([]scheduleView, 0, len(scheds))
	for _, s := range scheds {
		views = append(views, scheduleView{
			ID:             s.ID,
			ShowDate:       s.ShowDate,
			ShowTime:       s.ShowTime,
			TotalSeats:     s.TotalSeats,
			RemainingSeats: s.RemainingSeats(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"performance_id": perf.ID,
		"title":          perf.Title,
		"opens_at":       perf.ReservationOpensAt.UTC().Format(time.RFC3339),
		"schedules":      views,
	})
}
