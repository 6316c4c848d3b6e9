package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

// ScheduleRepo manages persistence for schedules. Besides plain reads
// it owns the committed-seats counter: GrabSeats and ReleaseSeats
// (plus TransitionRelease on the reservation side) are the only
// writers, so the counter always tracks the seat sum of PENDING and
// CONFIRMED reservations.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

const scheduleColumns = `id, performance_id, show_date, show_time, total_seats, committed_seats, entry_url, created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (*model.Schedule, error) {
	var s model.Schedule
	err := row.Scan(&s.ID, &s.PerformanceID, &s.ShowDate, &s.ShowTime,
		&s.TotalSeats, &s.CommittedSeats, &s.EntryURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID loads one schedule. Returns ErrScheduleNotFound when no row
// matches.
func (r *ScheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?`
	s, err := scanSchedule(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrScheduleNotFound
	}
	return s, err
}

// ListByPerformance returns all schedules of a performance ordered by
// date and time. Used by the public availability listing.
func (r *ScheduleRepo) ListByPerformance(ctx context.Context, performanceID string) ([]model.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM schedules WHERE performance_id = ? ORDER BY show_date, show_time`
	return r.list(ctx, q, performanceID)
}

// CountByPerformance reports how many schedules a performance has.
// The capacity guard bounds the per-requester cap by this number.
func (r *ScheduleRepo) CountByPerformance(ctx context.Context, performanceID string) (int, error) {
	const q = `SELECT COUNT(*) FROM schedules WHERE performance_id = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, performanceID).Scan(&n)
	return n, err
}

// GrabSeats atomically commits n seats against the schedule. The
// UPDATE only succeeds when n seats are still free, closing the
// check-then-act window between reading availability and writing the
// reservation: concurrent grabs serialize on the row and the loser
// sees ErrSeatShortage instead of overselling.
func (r *ScheduleRepo) GrabSeats(ctx context.Context, id string, n int) error {
	const q = `UPDATE schedules
	           SET committed_seats = committed_seats + ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND committed_seats + ? <= total_seats`
	res, err := r.db.ExecContext(ctx, q, n, id, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the schedule is missing or the seats are gone.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrSeatShortage
	}
	return nil
}

// ReleaseSeats returns n seats to the schedule. Used when an
// admission's reservation insert fails after a successful grab. The
// floor at zero guards against double releases.
func (r *ScheduleRepo) ReleaseSeats(ctx context.Context, id string, n int) error {
	const q = `UPDATE schedules
	           SET committed_seats = GREATEST(committed_seats - ?, 0), updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, n, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrScheduleNotFound)
}

// UpdateTotalSeats writes an already-validated total seat count.
// Ordering checks (no shrinking, venue ceiling) belong to the
// capacity guard.
func (r *ScheduleRepo) UpdateTotalSeats(ctx context.Context, id string, total int) error {
	const q = `UPDATE schedules SET total_seats = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, total, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrScheduleNotFound)
}

// UpdateEntryURL sets or clears the entry link. The freeze rule (no
// edits once reminders have gone out) belongs to the capacity guard.
func (r *ScheduleRepo) UpdateEntryURL(ctx context.Context, id string, entryURL *string) error {
	const q = `UPDATE schedules SET entry_url = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, entryURL, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrScheduleNotFound)
}

// ListOccurringOn returns schedules whose show date equals the given
// day ("2006-01-02"). The reminder mailer sweeps tomorrow's schedules.
func (r *ScheduleRepo) ListOccurringOn(ctx context.Context, day string) ([]model.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM schedules WHERE show_date = ?`
	return r.list(ctx, q, day)
}

// ListEndedBefore returns schedules of one performance whose curtain
// time lies before the given instant. The survey mailer targets these.
func (r *ScheduleRepo) ListEndedBefore(ctx context.Context, performanceID string, t time.Time) ([]model.Schedule, error) {
	const q = `SELECT ` + scheduleColumns + ` FROM schedules
	           WHERE performance_id = ? AND CONCAT(show_date, ' ', show_time) < ?`
	return r.list(ctx, q, performanceID, t.UTC().Format("2006-01-02 15:04"))
}

// DriftRow reports a schedule whose committed-seats counter disagrees
// with the authoritative seat sum over non-terminal reservations.
type DriftRow struct {
	ScheduleID string
	Committed  int
	ActualSum  int
}

// ListCounterDrift compares every schedule's committed counter with
// the aggregated seat sum and returns the rows that disagree. The
// reconciliation sweep audits and repairs these.
func (r *ScheduleRepo) ListCounterDrift(ctx context.Context) ([]DriftRow, error) {
	const q = `SELECT s.id, s.committed_seats, COALESCE(SUM(CASE WHEN res.status IN ('PENDING','CONFIRMED') THEN res.seat_count ELSE 0 END), 0) AS actual
	           FROM schedules s
	           LEFT JOIN reservations res ON res.schedule_id = s.id
	           GROUP BY s.id, s.committed_seats
	           HAVING s.committed_seats <> actual`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DriftRow
	for rows.Next() {
		var d DriftRow
		if err := rows.Scan(&d.ScheduleID, &d.Committed, &d.ActualSum); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RepairCommitted conditionally rewrites the committed counter. The
// compare-and-swap on the old value means a counter that moved since
// the audit read is left alone; the next sweep will re-audit it.
func (r *ScheduleRepo) RepairCommitted(ctx context.Context, id string, from, to int) (bool, error) {
	const q = `UPDATE schedules SET committed_seats = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND committed_seats = ?`
	res, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ScheduleRepo) list(ctx context.Context, q string, args ...any) ([]model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
