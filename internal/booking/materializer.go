package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

// Materializer expands a confirmed reservation's seat count into
// individual attendee records. It is the single expansion path: the
// inline confirmation flow and the batch reconciliation task both
// call it, and the existence guard makes re-entry a no-op, so a
// reservation can never end up with duplicate attendees.
type Materializer struct {
	attendees AttendeeStore
}

// NewMaterializer returns a Materializer over the given store.
func NewMaterializer(attendees AttendeeStore) *Materializer {
	return &Materializer{attendees: attendees}
}

// Materialize creates the attendee rows for the reservation and
// returns how many were created. Zero with nil error means attendees
// already existed and nothing was done. The first occupant carries
// the requester's name and note verbatim; later occupants get a
// derived companion label and an empty note. All rows start
// checked-out.
func (m *Materializer) Materialize(ctx context.Context, rec *model.Reservation) (int, error) {
	exists, err := m.attendees.ExistsForReservation(ctx, rec.ID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	recs := make([]model.Attendee, rec.SeatCount)
	for i := range recs {
		a := model.Attendee{
			ID:            uuid.NewString(),
			ReservationID: rec.ID,
			PerformanceID: rec.PerformanceID,
			ScheduleID:    rec.ScheduleID,
			CheckedIn:     false,
		}
		if i == 0 {
			a.DisplayName = rec.RequesterName
			a.Note = rec.Note
		} else {
			a.DisplayName = fmt.Sprintf("%s (companion %d)", rec.RequesterName, i)
		}
		recs[i] = a
	}
	if err := m.attendees.CreateBulk(ctx, recs); err != nil {
		return 0, err
	}
	slog.Info("attendees materialized", "reservation", rec.ID, "count", len(recs))
	return len(recs), nil
}
