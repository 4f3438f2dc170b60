package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// Repository persists attendance rows in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// StudentExists reports whether the external identifier references a student.
func (r *Repository) StudentExists(ctx context.Context, studentID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE student_id = $1)`, studentID).Scan(&ok)
	return ok, err
}

// ClassExists reports whether the id references a class.
func (r *Repository) ClassExists(ctx context.Context, classID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1)`, classID).Scan(&ok)
	return ok, err
}

// CurrentStatus returns the existing status for a pair, if any.
func (r *Repository) CurrentStatus(ctx context.Context, studentID, classID string) (string, bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM attendance WHERE student_id = $1 AND class_id = $2`,
		studentID, classID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

// Upsert atomically inserts or overwrites the single row for the pair,
// refreshing marked_at. Concurrent marks for the same pair resolve to
// last-write-wins without duplicate rows.
func (r *Repository) Upsert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (student_id, class_id, status, marked_at, terminal_id)
		VALUES ($1, $2, $3, NOW(), $4)
		ON CONFLICT (student_id, class_id) DO UPDATE
		SET status = EXCLUDED.status, marked_at = NOW(), terminal_id = EXCLUDED.terminal_id
		RETURNING marked_at
	`, rec.StudentID, rec.ClassID, rec.Status, rec.TerminalID)
	if err := row.Scan(&rec.MarkedAt); err != nil {
		// The service checks both references first, but the pair can vanish
		// between that check and the insert.
		return model.AttendanceRecord{}, mapFKViolation(err)
	}
	return rec, nil
}

// mapFKViolation turns a foreign-key violation into model.ErrNotFound so a
// student or class deleted mid-request reads as missing, not as a server
// fault.
func mapFKViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("student or class no longer exists: %w", model.ErrNotFound)
	}
	return err
}

// ClassRoster returns the class's records joined with student details,
// ordered by student display name.
func (r *Repository) ClassRoster(ctx context.Context, classID string) ([]model.RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.student_id, s.name, s.email, a.status, a.marked_at
		FROM attendance a
		JOIN students s ON s.student_id = a.student_id
		WHERE a.class_id = $1
		ORDER BY s.name, a.student_id
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(&e.StudentID, &e.Name, &e.Email, &e.Status, &e.MarkedAt); err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}
	return roster, rows.Err()
}

// StudentCounts returns total and present record counts for a student.
func (r *Repository) StudentCounts(ctx context.Context, studentID string) (total, present int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'present')
		FROM attendance WHERE student_id = $1
	`, studentID).Scan(&total, &present)
	return total, present, err
}

// PresentToday counts present marks for classes scheduled on the given date.
func (r *Repository) PresentToday(ctx context.Context, date string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM attendance a
		JOIN classes c ON c.id = a.class_id
		WHERE c.class_date = $1::date AND a.status = 'present'
	`, date).Scan(&n)
	return n, err
}
