package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/booking"
	"github.com/stagedoor/theatre-ticket-reservation/internal/middleware"
	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
)

// AdminScheduleHandler serves the performance-scoped schedule
// surface: capacity and entry-link edits through the guard, and the
// reservation roster. Every method verifies that the schedule belongs
// to the performance named in the session before acting.
type AdminScheduleHandler struct {
	Guard        *booking.Guard
	Schedules    *repository.ScheduleRepo
	Reservations *repository.ReservationRepo
	Attendees    *repository.AttendeeRepo
}

// NewAdminScheduleHandler wires an AdminScheduleHandler.
func NewAdminScheduleHandler(
	guard *booking.Guard,
	schedules *repository.ScheduleRepo,
	reservations *repository.ReservationRepo,
	attendees *repository.AttendeeRepo,
) *AdminScheduleHandler {
	return &AdminScheduleHandler{
		Guard:        guard,
		Schedules:    schedules,
		Reservations: reservations,
		Attendees:    attendees,
	}
}

// scopedSchedule loads the schedule and verifies the session scope
// covers it. Out-of-scope ids report as not found rather than
// forbidden so sessions cannot probe other performances' ids.
func (h *AdminScheduleHandler) scopedSchedule(c echo.Context, id string) (string, bool, error) {
	perfID, ok := middleware.AdminScope(c)
	if !ok {
		return "", false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session scope"})
	}
	sched, err := h.Schedules.GetByID(c.Request().Context(), id)
	if err == repository.ErrScheduleNotFound {
		return "", false, c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
	}
	if err != nil {
		return "", false, respondErr(c, err)
	}
	if sched.PerformanceID != perfID {
		return "", false, c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
	}
	return perfID, true, nil
}

type updateScheduleRequest struct {
	TotalSeats *int    `json:"total_seats"`
	EntryURL   *string `json:"entry_url"`
}

// Update handles PATCH /v1/admin/schedules/:id. Fields are optional;
// absent fields are left untouched. Seat-count monotonicity and the
// entry-link freeze are enforced by the guard.
func (h *AdminScheduleHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if _, ok, err := h.scopedSchedule(c, id); !ok {
		return err
	}

	var req updateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.TotalSeats == nil && req.EntryURL == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	ctx := c.Request().Context()
	if req.TotalSeats != nil {
		if err := h.Guard.SetTotalSeats(ctx, id, *req.TotalSeats); err != nil {
			return respondErr(c, err)
		}
	}
	if req.EntryURL != nil {
		entry := req.EntryURL
		if *entry == "" {
			entry = nil // empty string clears the link
		}
		if err := h.Guard.SetEntryURL(ctx, id, entry); err != nil {
			return respondErr(c, err)
		}
	}

	sched, err := h.Schedules.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":              sched.ID,
		"total_seats":     sched.TotalSeats,
		"committed_seats": sched.CommittedSeats,
		"entry_url":       sched.EntryURL,
	})
}

type rosterEntry struct {
	ReservationID    string         `json:"reservation_id"`
	RequesterName    string         `json:"requester_name"`
	RequesterEmail   string         `json:"requester_email"`
	SeatCount        int            `json:"seat_count"`
	Status           string         `json:"status"`
	ConfirmationCode string         `json:"confirmation_code"`
	Attendees        []attendeeView `json:"attendees,omitempty"`
}

type attendeeView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Note        string `json:"note,omitempty"`
	CheckedIn   bool   `json:"checked_in"`
}

// Roster handles GET /v1/admin/schedules/:id/reservations. It lists
// every reservation on the schedule, terminal ones included, with the
// materialized attendees of confirmed ones.
func (h *AdminScheduleHandler) Roster(c echo.Context) error {
	id := c.Param("id")
	if _, ok, err := h.scopedSchedule(c, id); !ok {
		return err
	}

	ctx := c.Request().Context()
	recs, err := h.Reservations.ListBySchedule(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}

	entries := make([]rosterEntry, 0, len(recs))
	for _, r := range recs {
		e := rosterEntry{
			ReservationID:    r.ID,
			RequesterName:    r.RequesterName,
			RequesterEmail:   r.RequesterEmail,
			SeatCount:        r.SeatCount,
			Status:           r.Status,
			ConfirmationCode: r.ConfirmationCode,
		}
		atts, err := h.Attendees.ListByReservation(ctx, r.ID)
		if err != nil {
			return respondErr(c, err)
		}
		for _, a := range atts {
			e.Attendees = append(e.Attendees, attendeeView{
				ID:          a.ID,
				DisplayName: a.DisplayName,
				Note:        a.Note,
				CheckedIn:   a.CheckedIn,
			})
		}
		entries = append(entries, e)
	}

	return c.JSON(http.StatusOK, echo.Map{"schedule_id": id, "reservations": entries})
}
