package booking

import (
	"context"

	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

// HeldStatuses is the conservative status set for admission-time
// availability: pending holds block new holds.
var HeldStatuses = []string{model.StatusPending, model.StatusConfirmed}

// GuaranteedStatuses is the status set for confirmation-time checks
// and mail targeting: only confirmed seats matter once the hold
// window is understood to be transient.
var GuaranteedStatuses = []string{model.StatusConfirmed}

// Inventory computes seats already committed to a schedule by
// aggregating reservations in the given status set. It never fails
// except on storage unavailability, which propagates as a retryable
// error.
type Inventory struct {
	reservations ReservationStore
}

// NewInventory returns an Inventory over the given store.
func NewInventory(reservations ReservationStore) *Inventory {
	return &Inventory{reservations: reservations}
}

// CountedSeats sums the seat counts of reservations against the
// schedule whose status is in the set. Zero reservations count as
// zero seats.
func (inv *Inventory) CountedSeats(ctx context.Context, scheduleID string, statuses []string) (int, error) {
	return inv.reservations.SumSeats(ctx, scheduleID, statuses...)
}
