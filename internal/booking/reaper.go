package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/stagedoor/theatre-ticket-reservation/internal/config"
	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

// Reaper expires stale tentative holds. Each transition is a
// conditional write that only succeeds while the row is still
// PENDING, so a sweep arriving late can never override a reservation
// that was confirmed or cancelled in the interim.
type Reaper struct {
	reservations ReservationStore
	policy       config.Policy
	now          func() time.Time
}

// NewReaper wires a Reaper.
func NewReaper(reservations ReservationStore, policy config.Policy) *Reaper {
	return &Reaper{reservations: reservations, policy: policy, now: time.Now}
}

// Sweep expires every PENDING reservation older than the hold window
// and returns how many were expired. A lost compare-and-swap (a
// concurrent confirmation or cancellation won) is a benign skip, not
// an error.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.policy.HoldTTL)
	stale, err := r.reservations.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, rec := range stale {
		ok, err := r.reservations.TransitionRelease(ctx, rec.ID, model.StatusPending, model.StatusExpired)
		if err != nil {
			return expired, err
		}
		if !ok {
			slog.Debug("reaper lost race, skipping", "reservation", rec.ID)
			continue
		}
		expired++
	}
	if expired > 0 {
		slog.Info("expired stale holds", "count", expired)
	}
	return expired, nil
}
