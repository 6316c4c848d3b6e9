package booking

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/stagedoor/theatre-ticket-reservation/internal/alert"
	"github.com/stagedoor/theatre-ticket-reservation/internal/mail"
	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
	"github.com/stagedoor/theatre-ticket-reservation/internal/token"
)

// Confirmer validates confirmation links and moves reservations from
// PENDING to CONFIRMED. Every failure branch leaves the reservation
// untouched: either the status flips and materialization runs, or
// nothing is written.
type Confirmer struct {
	performances PerformanceStore
	schedules    ScheduleStore
	reservations ReservationStore
	inventory    *Inventory
	materializer *Materializer
	signer       *token.Signer
	templates    mail.TemplateSource
	sender       mail.Sender
	alerts       alert.Sink
	cancelBase   string
}

// NewConfirmer wires a Confirmer. cancelBase is the external URL the
// cancellation link in the confirmation notice is built on.
func NewConfirmer(
	performances PerformanceStore,
	schedules ScheduleStore,
	reservations ReservationStore,
	inventory *Inventory,
	materializer *Materializer,
	signer *token.Signer,
	templates mail.TemplateSource,
	sender mail.Sender,
	alerts alert.Sink,
	cancelBase string,
) *Confirmer {
	return &Confirmer{
		performances: performances,
		schedules:    schedules,
		reservations: reservations,
		inventory:    inventory,
		materializer: materializer,
		signer:       signer,
		templates:    templates,
		sender:       sender,
		alerts:       alerts,
		cancelBase:   cancelBase,
	}
}

// Confirm processes one confirmation link. Confirming an already
// confirmed reservation is an idempotent success that skips
// re-processing. The capacity re-check counts CONFIRMED seats only:
// by confirmation time the transient holds of other requesters no
// longer argue for a rejection.
func (c *Confirmer) Confirm(ctx context.Context, reservationID, presented string) (*model.Reservation, error) {
	rec, err := c.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, notFoundOr(err, "reservation not found")
	}
	if rec.Status == model.StatusExpired {
		return nil, E(CodeExpiredLink, "this confirmation link has expired")
	}
	if !c.signer.VerifyConfirm(rec.ID, rec.RequesterEmail, presented) {
		return nil, E(CodeBadToken, "invalid confirmation link")
	}
	if rec.Status == model.StatusConfirmed {
		return rec, nil
	}
	if rec.Status == model.StatusCancelled {
		return nil, E(CodeAlreadyCancelled, "this reservation has been cancelled")
	}

	sched, err := c.schedules.GetByID(ctx, rec.ScheduleID)
	if err != nil {
		return nil, notFoundOr(err, "schedule not found")
	}
	confirmed, err := c.inventory.CountedSeats(ctx, sched.ID, GuaranteedStatuses)
	if err != nil {
		return nil, err
	}
	if confirmed+rec.SeatCount > sched.TotalSeats {
		return nil, E(CodeSeatShortage, "the schedule is fully booked")
	}

	ok, err := c.reservations.Transition(ctx, rec.ID, model.StatusPending, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race; re-read to see who won.
		rec, err = c.reservations.GetByID(ctx, rec.ID)
		if err != nil {
			return nil, notFoundOr(err, "reservation not found")
		}
		switch rec.Status {
		case model.StatusConfirmed:
			return rec, nil
		case model.StatusExpired:
			return nil, E(CodeExpiredLink, "this confirmation link has expired")
		default:
			return nil, E(CodeAlreadyCancelled, "this reservation has been cancelled")
		}
	}
	rec.Status = model.StatusConfirmed

	if _, err := c.materializer.Materialize(ctx, rec); err != nil {
		// The status flip is committed; the reconciliation sweep will
		// finish materialization.
		c.alerts.Alert("confirmation", alert.SeverityCritical,
			"attendee materialization failed for "+rec.ID+": "+err.Error())
	}

	c.sendConfirmedNotice(ctx, rec, sched)
	slog.Info("reservation confirmed", "reservation", rec.ID, "schedule", sched.ID)
	return rec, nil
}

func (c *Confirmer) sendConfirmedNotice(ctx context.Context, rec *model.Reservation, sched *model.Schedule) {
	perf, err := c.performances.GetByID(ctx, rec.PerformanceID)
	if err != nil {
		c.alerts.Alert("confirmation", alert.SeverityWarning, "performance lookup failed for notice: "+err.Error())
		return
	}
	text, err := c.templates.Template("confirmed_notice")
	if err != nil {
		c.alerts.Alert("confirmation", alert.SeverityWarning, "confirmed template unavailable: "+err.Error())
		return
	}
	rendered := mail.Render(text, map[string]string{
		"name":       rec.RequesterName,
		"title":      perf.Title,
		"date":       sched.ShowDate,
		"time":       sched.ShowTime,
		"seats":      strconv.Itoa(rec.SeatCount),
		"code":       rec.ConfirmationCode,
		"cancelLink": c.signer.CancelLink(c.cancelBase, rec.ID),
	})
	subject, body := mail.Subject(rendered)
	if err := c.sender.Send(mail.Message{To: rec.RequesterEmail, Subject: subject, Body: body}); err != nil {
		slog.Error("confirmed notice send failed", "reservation", rec.ID, "error", err)
	}
}
