package booking

import (
	"context"
	"log/slog"

	"github.com/stagedoor/theatre-ticket-reservation/internal/alert"
	"github.com/stagedoor/theatre-ticket-reservation/internal/config"
	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
	"github.com/stagedoor/theatre-ticket-reservation/internal/token"
)

// Canceller validates cancellation links and moves PENDING or
// CONFIRMED reservations to CANCELLED, tearing down derived attendee
// rows. Cancelling an already cancelled reservation is an idempotent
// success that deletes nothing further.
type Canceller struct {
	reservations ReservationStore
	attendees    AttendeeStore
	signer       *token.Signer
	policy       config.Policy
	alerts       alert.Sink
}

// NewCanceller wires a Canceller.
func NewCanceller(
	reservations ReservationStore,
	attendees AttendeeStore,
	signer *token.Signer,
	policy config.Policy,
	alerts alert.Sink,
) *Canceller {
	return &Canceller{
		reservations: reservations,
		attendees:    attendees,
		signer:       signer,
		policy:       policy,
		alerts:       alerts,
	}
}

// Cancel processes one cancellation link. The token scheme is the
// email-less variant, so a cancellation link mailed to the requester
// works regardless of later email changes.
func (c *Canceller) Cancel(ctx context.Context, reservationID, presented string) (*model.Reservation, error) {
	rec, err := c.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, notFoundOr(err, "reservation not found")
	}
	if !c.signer.VerifyCancel(rec.ID, presented) {
		return nil, E(CodeBadToken, "invalid cancellation link")
	}
	if rec.Status == model.StatusCancelled {
		return rec, nil
	}
	if rec.Status == model.StatusExpired {
		return nil, E(CodeExpiredLink, "this reservation has already expired")
	}

	// Try from the observed state first, then the other live state;
	// the conditional write keeps a racing transition safe.
	ok, err := c.reservations.TransitionRelease(ctx, rec.ID, rec.Status, model.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		rec, err = c.reservations.GetByID(ctx, rec.ID)
		if err != nil {
			return nil, notFoundOr(err, "reservation not found")
		}
		switch rec.Status {
		case model.StatusCancelled:
			return rec, nil
		case model.StatusExpired:
			return nil, E(CodeExpiredLink, "this reservation has already expired")
		}
		ok, err = c.reservations.TransitionRelease(ctx, rec.ID, rec.Status, model.StatusCancelled)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, E(CodeInternal, "reservation state changed during cancellation")
		}
	}
	rec.Status = model.StatusCancelled

	deleted, err := c.attendees.DeleteByReservation(ctx, rec.ID, c.policy.AttendeeDeleteBatch)
	if err != nil {
		// Status is committed; leftover attendee rows are cleaned by
		// the reconciliation sweep.
		c.alerts.Alert("cancellation", alert.SeverityCritical,
			"attendee teardown failed for "+rec.ID+": "+err.Error())
	}

	slog.Info("reservation cancelled", "reservation", rec.ID, "attendees_deleted", deleted)
	return rec, nil
}
