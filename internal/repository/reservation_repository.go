package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations table.
// Reservation rows are never deleted; state transitions are guarded
// conditional updates so a late writer can never clobber a transition
// that already happened. All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB for callers that coordinate
// transactions across repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, performance_id, schedule_id, requester_name, requester_email,
	seat_count, note, status, confirmation_code, reminder_sent, survey_sent, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var v model.Reservation
	err := row.Scan(&v.ID, &v.PerformanceID, &v.ScheduleID, &v.RequesterName, &v.RequesterEmail,
		&v.SeatCount, &v.Note, &v.Status, &v.ConfirmationCode, &v.ReminderSent, &v.SurveySent,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a new reservation row. The primary key makes this a
// create-if-absent write: a retried insert with the same identifier
// maps the MySQL duplicate-key error to ErrDuplicateID so the caller
// can roll back its seat grab instead of double-counting.
func (r *ReservationRepo) Create(ctx context.Context, rec *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (id, performance_id, schedule_id, requester_name, requester_email,
	            seat_count, note, status, confirmation_code)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.PerformanceID, rec.ScheduleID, rec.RequesterName, rec.RequesterEmail,
		rec.SeatCount, rec.Note, rec.Status, rec.ConfirmationCode)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrDuplicateID
	}
	return err
}

// GetByID loads one reservation. Returns ErrReservationNotFound when
// no row matches.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	rec, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	return rec, err
}

// SumSeats aggregates the seat counts of all reservations against the
// schedule whose status is in the given set. Zero reservations sum to
// zero seats. Admission-time availability counts PENDING and
// CONFIRMED; confirmation-time and mail targeting count CONFIRMED only.
func (r *ReservationRepo) SumSeats(ctx context.Context, scheduleID string, statuses ...string) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	q := `SELECT COALESCE(SUM(seat_count), 0) FROM reservations
	      WHERE schedule_id = ? AND status IN (?` + strings.Repeat(",?", len(statuses)-1) + `)`
	args := make([]any, 0, len(statuses)+1)
	args = append(args, scheduleID)
	for _, s := range statuses {
		args = append(args, s)
	}
	var sum int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&sum)
	return sum, err
}

// CountActiveByRequester counts the requester's non-terminal
// reservations across all schedules of one performance. The duplicate
// policy compares this against the per-performance cap.
func (r *ReservationRepo) CountActiveByRequester(ctx context.Context, performanceID, email string) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE performance_id = ? AND requester_email = ? AND status IN ('PENDING','CONFIRMED')`
	var n int
	err := r.db.QueryRowContext(ctx, q, performanceID, email).Scan(&n)
	return n, err
}

// HasActiveForSchedule reports whether the requester already holds a
// non-terminal reservation for the given schedule.
func (r *ReservationRepo) HasActiveForSchedule(ctx context.Context, scheduleID, email string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations
	           WHERE schedule_id = ? AND requester_email = ? AND status IN ('PENDING','CONFIRMED'))`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, scheduleID, email).Scan(&exists)
	return exists, err
}

// Transition performs a compare-and-swap on the status column: the
// update only applies while the row is still in the expected state.
// It reports false when the precondition failed, which callers treat
// as a benign lost race, not an error.
func (r *ReservationRepo) Transition(ctx context.Context, id, from, to string) (bool, error) {
	const q = `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`
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

// TransitionRelease performs the status CAS and returns the row's
// seats to the schedule's committed counter in one transaction. The
// reaper uses it for PENDING→EXPIRED and the cancellation handler for
// PENDING/CONFIRMED→CANCELLED, so a lost race leaves both the status
// and the counter untouched.
func (r *ReservationRepo) TransitionRelease(ctx context.Context, id, from, to string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var scheduleID string
	var seatCount int
	const sel = `SELECT schedule_id, seat_count FROM reservations WHERE id = ? AND status = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, sel, id, from).Scan(&scheduleID, &seatCount)
	if err == sql.ErrNoRows {
		// Row gone or already transitioned; lost the race.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	const upd = `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`
	if _, err := tx.ExecContext(ctx, upd, to, id, from); err != nil {
		return false, err
	}
	const release = `UPDATE schedules
	                 SET committed_seats = GREATEST(committed_seats - ?, 0), updated_at = UTC_TIMESTAMP()
	                 WHERE id = ?`
	if _, err := tx.ExecContext(ctx, release, seatCount, scheduleID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// ListStalePending returns PENDING reservations created before the
// given cutoff. The expiration reaper sweeps these.
func (r *ReservationRepo) ListStalePending(ctx context.Context, before time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE status = 'PENDING' AND created_at < ?`
	return r.list(ctx, q, before.UTC())
}

// ListBySchedule returns every reservation against a schedule, newest
// first. Admin roster listing includes terminal rows for audit.
func (r *ReservationRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE schedule_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, scheduleID)
}

// AnyReminderSent reports whether any reservation against the
// schedule has its reminder flag set. Once true, the schedule's entry
// link is frozen.
func (r *ReservationRepo) AnyReminderSent(ctx context.Context, scheduleID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE schedule_id = ? AND reminder_sent = TRUE)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, scheduleID).Scan(&exists)
	return exists, err
}

// ListConfirmedNeedingReminder returns CONFIRMED reservations on the
// schedule that have not received the entry reminder yet.
func (r *ReservationRepo) ListConfirmedNeedingReminder(ctx context.Context, scheduleID string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE schedule_id = ? AND status = 'CONFIRMED' AND reminder_sent = FALSE`
	return r.list(ctx, q, scheduleID)
}

// ListConfirmedNeedingSurvey returns CONFIRMED reservations on the
// schedule that have not received the post-show survey yet.
func (r *ReservationRepo) ListConfirmedNeedingSurvey(ctx context.Context, scheduleID string) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE schedule_id = ? AND status = 'CONFIRMED' AND survey_sent = FALSE`
	return r.list(ctx, q, scheduleID)
}

// ListConfirmedWithoutAttendees returns CONFIRMED reservations that
// have no attendee rows. The reconciliation task feeds these through
// the shared materializer to catch up on crashed confirmations.
func (r *ReservationRepo) ListConfirmedWithoutAttendees(ctx context.Context) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations res
	           WHERE res.status = 'CONFIRMED'
	             AND NOT EXISTS (SELECT 1 FROM attendees a WHERE a.reservation_id = res.id)`
	return r.list(ctx, q)
}

// MarkReminderSent flips the reminder idempotency flag.
func (r *ReservationRepo) MarkReminderSent(ctx context.Context, id string) error {
	const q = `UPDATE reservations SET reminder_sent = TRUE, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrReservationNotFound)
}

// MarkSurveySent flips the survey idempotency flag.
func (r *ReservationRepo) MarkSurveySent(ctx context.Context, id string) error {
	const q = `UPDATE reservations SET survey_sent = TRUE, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrReservationNotFound)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		rec, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
