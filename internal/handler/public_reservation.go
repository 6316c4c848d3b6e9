package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/booking"
	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
	"github.com/stagedoor/theatre-ticket-reservation/internal/queue"
	"github.com/stagedoor/theatre-ticket-reservation/internal/repository"
	queue_publisher "github.com/stagedoor/theatre-ticket-reservation/internal/service"
)

// ReservationHandler serves the public reservation lifecycle: the
// admission POST and the emailed confirm/cancel links. Lifecycle
// events are published to the broker after the state change commits;
// publish failures are logged by the publisher and never fail the
// request.
type ReservationHandler struct {
	Admission    *booking.Admission
	Confirmer    *booking.Confirmer
	Canceller    *booking.Canceller
	Performances *repository.PerformanceRepo
	Schedules    *repository.ScheduleRepo
}

// NewReservationHandler wires a ReservationHandler.
func NewReservationHandler(
	adm *booking.Admission,
	conf *booking.Confirmer,
	canc *booking.Canceller,
	performances *repository.PerformanceRepo,
	schedules *repository.ScheduleRepo,
) *ReservationHandler {
	return &ReservationHandler{
		Admission:    adm,
		Confirmer:    conf,
		Canceller:    canc,
		Performances: performances,
		Schedules:    schedules,
	}
}

type createReservationRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	SeatCount int    `json:"seat_count"`
	Note      string `json:"note"`
}

// Create handles POST /v1/performances/:id/schedules/:sid/reservations.
// On success the reservation is PENDING, its seats are counted
// against the schedule, and the confirmation email is on its way.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.Admission.Admit(c.Request().Context(), booking.AdmissionRequest{
		PerformanceID: c.Param("id"),
		ScheduleID:    c.Param("sid"),
		Name:          req.Name,
		Email:         req.Email,
		SeatCount:     req.SeatCount,
		Note:          req.Note,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id":    res.ReservationID,
		"confirmation_code": res.ConfirmationCode,
		"status":            model.StatusPending,
	})
}

// Confirm handles GET /v1/reservations/confirm?id=..&token=.., the
// link from the confirmation email. Repeat visits are idempotent.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	id, tok := c.QueryParam("id"), c.QueryParam("token")
	if id == "" || tok == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id and token are required"})
	}

	rec, err := h.Confirmer.Confirm(ctx, id, tok)
	if err != nil {
		return respondErr(c, err)
	}

	h.publishEvent(c, queue.ReservationConfirmedQueue, rec)
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": rec.ID,
		"status":         rec.Status,
		"seat_count":     rec.SeatCount,
	})
}

// Cancel handles GET /v1/reservations/cancel?id=..&token=.., the
// link from the confirmed-notice email. Works from both PENDING and
// CONFIRMED; repeat visits are idempotent.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	id, tok := c.QueryParam("id"), c.QueryParam("token")
	if id == "" || tok == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id and token are required"})
	}

	rec, err := h.Canceller.Cancel(ctx, id, tok)
	if err != nil {
		return respondErr(c, err)
	}

	h.publishEvent(c, queue.ReservationCancelledQueue, rec)
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": rec.ID,
		"status":         rec.Status,
	})
}

// publishEvent enriches and publishes a lifecycle event. Enrichment
// lookups are best-effort; the event ships with whatever resolved.
func (h *ReservationHandler) publishEvent(c echo.Context, queueName string, rec *model.Reservation) {
	ctx := c.Request().Context()
	ev := queue.ReservationEvent{
		ReservationID:  rec.ID,
		PerformanceID:  rec.PerformanceID,
		ScheduleID:     rec.ScheduleID,
		RequesterName:  rec.RequesterName,
		RequesterEmail: rec.RequesterEmail,
		SeatCount:      rec.SeatCount,
		Status:         rec.Status,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if perf, err := h.Performances.GetByID(ctx, rec.PerformanceID); err == nil {
		ev.PerformanceTitle = perf.Title
	}
	if sched, err := h.Schedules.GetByID(ctx, rec.ScheduleID); err == nil {
		ev.ShowDate = sched.ShowDate
		ev.ShowTime = sched.ShowTime
	}
	_ = queue_publisher.PublishReservationEvent(ctx, queueName, ev)
}
