package booking

import (
	"context"
	"time"

	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

// The store interfaces below are satisfied by the repository types.
// They exist so the engine can be exercised against in-memory fakes;
// each captures the conditional-write semantics the component relies
// on rather than the full repository surface.

// PerformanceStore reads and updates performances.
type PerformanceStore interface {
	GetByID(ctx context.Context, id string) (*model.Performance, error)
	UpdateMaxActive(ctx context.Context, id string, maxActive int) error
	UpdateOpensAt(ctx context.Context, id, opensAt string) error
	UpdateSurveyURL(ctx context.Context, id string, surveyURL *string) error
}

// ScheduleStore reads schedules and owns the committed-seats counter.
// GrabSeats must be atomic: it succeeds only while the requested
// seats fit under total_seats, and concurrent grabs serialize.
type ScheduleStore interface {
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	CountByPerformance(ctx context.Context, performanceID string) (int, error)
	GrabSeats(ctx context.Context, id string, n int) error
	ReleaseSeats(ctx context.Context, id string, n int) error
	UpdateTotalSeats(ctx context.Context, id string, total int) error
	UpdateEntryURL(ctx context.Context, id string, entryURL *string) error
}

// ReservationStore reads and transitions reservations. Create is
// create-if-absent; Transition and TransitionRelease are
// compare-and-swap writes that report false on a lost race.
type ReservationStore interface {
	Create(ctx context.Context, rec *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	SumSeats(ctx context.Context, scheduleID string, statuses ...string) (int, error)
	CountActiveByRequester(ctx context.Context, performanceID, email string) (int, error)
	HasActiveForSchedule(ctx context.Context, scheduleID, email string) (bool, error)
	Transition(ctx context.Context, id, from, to string) (bool, error)
	TransitionRelease(ctx context.Context, id, from, to string) (bool, error)
	ListStalePending(ctx context.Context, before time.Time) ([]model.Reservation, error)
	AnyReminderSent(ctx context.Context, scheduleID string) (bool, error)
}

// AttendeeStore creates and deletes derived attendee records.
type AttendeeStore interface {
	ExistsForReservation(ctx context.Context, reservationID string) (bool, error)
	CreateBulk(ctx context.Context, recs []model.Attendee) error
	DeleteByReservation(ctx context.Context, reservationID string, batchSize int) (int, error)
}
