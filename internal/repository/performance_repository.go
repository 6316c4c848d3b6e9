package repository

import (
	"context"
	"database/sql"

	"github.com/stagedoor/theatre-ticket-reservation/internal/model"
)

// PerformanceRepo provides read and administrative-update access to
// the performances table. Performances are provisioned out of band,
// so there is no Create here; updates are limited to the fields the
// capacity guard is allowed to touch.
type PerformanceRepo struct {
	db *sql.DB
}

// NewPerformanceRepo returns a PerformanceRepo bound to the given database.
func NewPerformanceRepo(db *sql.DB) *PerformanceRepo { return &PerformanceRepo{db: db} }

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *PerformanceRepo) DB() *sql.DB { return r.db }

const performanceColumns = `id, title, reservation_opens_at, max_active, admin_secret_hash, survey_url, created_at, updated_at`

func scanPerformance(row interface{ Scan(...any) error }) (*model.Performance, error) {
	var p model.Performance
	err := row.Scan(&p.ID, &p.Title, &p.ReservationOpensAt, &p.MaxActive,
		&p.AdminSecretHash, &p.SurveyURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID loads one performance. Returns ErrPerformanceNotFound when
// no row matches.
func (r *PerformanceRepo) GetByID(ctx context.Context, id string) (*model.Performance, error) {
	const q = `SELECT ` + performanceColumns + ` FROM performances WHERE id = ?`
	p, err := scanPerformance(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrPerformanceNotFound
	}
	return p, err
}

// UpdateMaxActive sets the per-requester reservation cap. Monotonicity
// and range checks belong to the capacity guard; this method only
// writes the already-validated value.
func (r *PerformanceRepo) UpdateMaxActive(ctx context.Context, id string, maxActive int) error {
	const q = `UPDATE performances SET max_active = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, maxActive, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrPerformanceNotFound)
}

// UpdateOpensAt sets the reservation-open timestamp. The value must
// already be a DB timestamp string ("2006-01-02 15:04:05", UTC).
func (r *PerformanceRepo) UpdateOpensAt(ctx context.Context, id, opensAt string) error {
	const q = `UPDATE performances SET reservation_opens_at = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, opensAt, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrPerformanceNotFound)
}

// UpdateSurveyURL sets or clears the post-show survey link.
func (r *PerformanceRepo) UpdateSurveyURL(ctx context.Context, id string, surveyURL *string) error {
	const q = `UPDATE performances SET survey_url = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, surveyURL, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrPerformanceNotFound)
}

// ListWithSurvey returns performances that have a survey link set.
// The survey mailer uses this to scope its sweep.
func (r *PerformanceRepo) ListWithSurvey(ctx context.Context) ([]model.Performance, error) {
	const q = `SELECT ` + performanceColumns + ` FROM performances WHERE survey_url IS NOT NULL AND survey_url <> ''`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Performance
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// requireRow converts a zero-row UPDATE into the given sentinel error.
// The connection runs with clientFoundRows, so RowsAffected counts
// matched rows, not changed ones: zero means the id did not match,
// even for a repeated identical write.
func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
