package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// DefaultStart is the lower bound applied when a report request omits a start
// date. Fixed so default reports are deterministic.
const DefaultStart = "2000-01-01"

// Service aggregates attendance rows into reports and spreadsheet exports.
type Service struct {
	db *sql.DB
}

// NewService creates a reporting service over the shared pool.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// DefaultRange fills missing bounds: DefaultStart through today (local).
func DefaultRange(start, end string, now time.Time) (string, string) {
	if start == "" {
		start = DefaultStart
	}
	if end == "" {
		end = now.Local().Format("2006-01-02")
	}
	return start, end
}

// Rows returns the joined report for classes dated within [start, end]
// inclusive, optionally filtered to one student, ordered by class date
// descending, then start time, then student name.
func (s *Service) Rows(ctx context.Context, start, end, studentID string) ([]model.ReportRow, error) {
	if err := validateDate(start); err != nil {
		return nil, err
	}
	if err := validateDate(end); err != nil {
		return nil, err
	}

	query := `
		SELECT to_char(c.class_date, 'YYYY-MM-DD'), c.name,
		       to_char(c.start_time, 'HH24:MI:SS'), to_char(c.end_time, 'HH24:MI:SS'),
		       a.student_id, s.name, a.status, a.marked_at
		FROM attendance a
		JOIN classes c  ON c.id = a.class_id
		JOIN students s ON s.student_id = a.student_id
		WHERE c.class_date BETWEEN $1::date AND $2::date`
	args := []any{start, end}
	if studentID != "" {
		query += ` AND a.student_id = $3`
		args = append(args, studentID)
	}
	query += ` ORDER BY c.class_date DESC, c.start_time ASC, s.name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ReportRow{}
	for rows.Next() {
		var r model.ReportRow
		if err := rows.Scan(&r.ClassDate, &r.ClassName, &r.StartTime, &r.EndTime,
			&r.StudentID, &r.Name, &r.Status, &r.MarkedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func validateDate(v string) error {
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", model.ErrInvalid, v)
	}
	return nil
}
