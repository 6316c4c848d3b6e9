package booking

import (
	"context"
	"time"

	"github.com/stagedoor/theatre-ticket-reservation/internal/config"
)

// Guard validates administrative edits to schedule seat counts and
// performance settings so they can never violate already-issued
// reservations: seat counts and the reservation cap only ever grow,
// and the entry link freezes once attendees have been told how to
// enter.
type Guard struct {
	performances PerformanceStore
	schedules    ScheduleStore
	inventory    *Inventory
	reservations ReservationStore
	policy       config.Policy
}

// NewGuard wires a Guard.
func NewGuard(
	performances PerformanceStore,
	schedules ScheduleStore,
	inventory *Inventory,
	reservations ReservationStore,
	policy config.Policy,
) *Guard {
	return &Guard{
		performances: performances,
		schedules:    schedules,
		inventory:    inventory,
		reservations: reservations,
		policy:       policy,
	}
}

// SetTotalSeats updates a schedule's total seat count. The new value
// must fit under the venue ceiling, must not shrink the current
// total, and must cover the seats already held or confirmed.
func (g *Guard) SetTotalSeats(ctx context.Context, scheduleID string, total int) error {
	sched, err := g.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return notFoundOr(err, "schedule not found")
	}
	if total > g.policy.VenueCapacity {
		return E(CodeInvalidInput, "total seats exceeds venue capacity")
	}
	if total < sched.TotalSeats {
		return E(CodeInvalidInput, "total seats cannot be reduced")
	}
	held, err := g.inventory.CountedSeats(ctx, scheduleID, HeldStatuses)
	if err != nil {
		return err
	}
	if total < held {
		return E(CodeInvalidInput, "total seats cannot drop below reserved seats")
	}
	return g.schedules.UpdateTotalSeats(ctx, scheduleID, total)
}

// SetEntryURL updates a schedule's entry link. Once any reservation
// on the schedule has received the entry reminder the link is frozen.
func (g *Guard) SetEntryURL(ctx context.Context, scheduleID string, entryURL *string) error {
	if _, err := g.schedules.GetByID(ctx, scheduleID); err != nil {
		return notFoundOr(err, "schedule not found")
	}
	sent, err := g.reservations.AnyReminderSent(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sent {
		return E(CodeFrozen, "entry link is frozen after reminders have been sent")
	}
	return g.schedules.UpdateEntryURL(ctx, scheduleID, entryURL)
}

// SetMaxActive updates a performance's per-requester reservation cap.
// The cap must lie within [current value, schedule count].
func (g *Guard) SetMaxActive(ctx context.Context, performanceID string, maxActive int) error {
	perf, err := g.performances.GetByID(ctx, performanceID)
	if err != nil {
		return notFoundOr(err, "performance not found")
	}
	if maxActive < 0 {
		return E(CodeInvalidInput, "reservation cap cannot be negative")
	}
	count, err := g.schedules.CountByPerformance(ctx, performanceID)
	if err != nil {
		return err
	}
	if maxActive > count {
		return E(CodeInvalidInput, "reservation cap cannot exceed the schedule count")
	}
	if maxActive < perf.MaxActive {
		return E(CodeInvalidInput, "reservation cap cannot be reduced")
	}
	return g.performances.UpdateMaxActive(ctx, performanceID, maxActive)
}

// SetOpensAt updates the reservation-open timestamp. The value must
// parse as RFC 3339; no ordering relative to now is enforced here,
// only admission checks against the clock.
func (g *Guard) SetOpensAt(ctx context.Context, performanceID, raw string) error {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return E(CodeInvalidInput, "reservation open time must be a valid RFC 3339 timestamp")
	}
	if _, err := g.performances.GetByID(ctx, performanceID); err != nil {
		return notFoundOr(err, "performance not found")
	}
	return g.performances.UpdateOpensAt(ctx, performanceID, t.UTC().Format("2006-01-02 15:04:05"))
}

// SetSurveyURL updates the post-show survey link. No freeze applies.
func (g *Guard) SetSurveyURL(ctx context.Context, performanceID string, surveyURL *string) error {
	if _, err := g.performances.GetByID(ctx, performanceID); err != nil {
		return notFoundOr(err, "performance not found")
	}
	return g.performances.UpdateSurveyURL(ctx, performanceID, surveyURL)
}
