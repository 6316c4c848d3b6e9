package repository

import (
	"context"
	"database/sql"

	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

// AttendeeRepo provides data access to the attendees table. Attendee
// rows are created in bulk by the materializer and deleted in bulk
// when the owning reservation is cancelled; the only in-place
// mutation is the check-in flag.
type AttendeeRepo struct {
	db *sql.DB
}

// NewAttendeeRepo returns an AttendeeRepo bound to the given database.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo { return &AttendeeRepo{db: db} }

// ExistsForReservation reports whether any attendee row references
// the reservation. The materializer checks this before expanding so
// re-entry never creates duplicates.
func (r *AttendeeRepo) ExistsForReservation(ctx context.Context, reservationID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM attendees WHERE reservation_id = ?)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(&exists)
	return exists, err
}

// CreateBulk inserts multiple attendee records in one statement.
// Passing an empty slice has no effect and returns nil.
func (r *AttendeeRepo) CreateBulk(ctx context.Context, recs []model.Attendee) error {
	if len(recs) == 0 {
		return nil
	}
	query := `INSERT INTO attendees (id, reservation_id, performance_id, schedule_id, display_name, note, checked_in) VALUES `
	args := make([]any, 0, len(recs)*7)
	for i, a := range recs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, a.ID, a.ReservationID, a.PerformanceID, a.ScheduleID, a.DisplayName, a.Note, a.CheckedIn)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteByReservation removes all attendees of one reservation in
// chunks of batchSize rows, respecting store batch limits. It returns
// the total number of rows deleted. Deleting for a reservation with
// no attendees is a no-op.
func (r *AttendeeRepo) DeleteByReservation(ctx context.Context, reservationID string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 25
	}
	const q = `DELETE FROM attendees WHERE reservation_id = ? LIMIT ?`
	total := 0
	for {
		res, err := r.db.ExecContext(ctx, q, reservationID, batchSize)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += int(n)
		if int(n) < batchSize {
			return total, nil
		}
	}
}

// GetByID loads one attendee. Returns ErrAttendeeNotFound when no row
// matches.
func (r *AttendeeRepo) GetByID(ctx context.Context, id string) (*model.Attendee, error) {
	const q = `SELECT id, reservation_id, performance_id, schedule_id, display_name, note, checked_in, created_at
	           FROM attendees WHERE id = ?`
	var a model.Attendee
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.ReservationID, &a.PerformanceID,
		&a.ScheduleID, &a.DisplayName, &a.Note, &a.CheckedIn, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAttendeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByReservation returns the attendees of one reservation in
// creation order.
func (r *AttendeeRepo) ListByReservation(ctx context.Context, reservationID string) ([]model.Attendee, error) {
	const q = `SELECT id, reservation_id, performance_id, schedule_id, display_name, note, checked_in, created_at
	           FROM attendees WHERE reservation_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.ID, &a.ReservationID, &a.PerformanceID, &a.ScheduleID,
			&a.DisplayName, &a.Note, &a.CheckedIn, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetCheckedIn flips the check-in flag for one attendee. The door
// check-in operation is the only caller.
func (r *AttendeeRepo) SetCheckedIn(ctx context.Context, id string, checkedIn bool) error {
	const q = `UPDATE attendees SET checked_in = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, checkedIn, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from an idempotent same-value write.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM attendees WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrAttendeeNotFound
		}
	}
	return nil
}
