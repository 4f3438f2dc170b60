package class

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// Repository persists classes in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const classCols = `id, name, to_char(class_date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'), created_at`

func scanClass(row interface{ Scan(...any) error }) (model.Class, error) {
	var cl model.Class
	err := row.Scan(&cl.ID, &cl.Name, &cl.Date, &cl.StartTime, &cl.EndTime, &cl.CreatedAt)
	return cl, err
}

// Insert writes a new class.
func (r *Repository) Insert(ctx context.Context, cl model.Class) (model.Class, error) {
	if cl.ID == "" {
		cl.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO classes (id, name, class_date, start_time, end_time)
		VALUES ($1, $2, $3::date, $4::time, $5::time)
		RETURNING created_at
	`, cl.ID, cl.Name, cl.Date, cl.StartTime, cl.EndTime)
	if err := row.Scan(&cl.CreatedAt); err != nil {
		return model.Class{}, err
	}
	return cl, nil
}

// List returns all classes ordered by date then start time.
func (r *Repository) List(ctx context.Context) ([]model.Class, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+classCols+` FROM classes ORDER BY class_date DESC, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		cl, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, cl)
	}
	return classes, rows.Err()
}

// Get returns a single class by id.
func (r *Repository) Get(ctx context.Context, id string) (model.Class, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+classCols+` FROM classes WHERE id = $1`, id)
	cl, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Class{}, model.ErrNotFound
	}
	return cl, err
}

// Delete removes a class; attendance rows cascade at the schema level.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Count returns the number of classes.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes`).Scan(&n)
	return n, err
}

// ActiveAt returns the class covering the given local date and time of day,
// earliest start wins when windows overlap.
func (r *Repository) ActiveAt(ctx context.Context, date, tod string) (model.Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+classCols+` FROM classes
		WHERE class_date = $1::date AND start_time <= $2::time AND end_time >= $2::time
		ORDER BY start_time
		LIMIT 1
	`, date, tod)
	cl, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Class{}, model.ErrNotFound
	}
	return cl, err
}

// NextAfter returns the earliest class on the given date starting strictly
// after tod but no later than horizon (a time of day on the same date).
func (r *Repository) NextAfter(ctx context.Context, date, tod, horizon string) (model.Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+classCols+` FROM classes
		WHERE class_date = $1::date
		  AND start_time > $2::time
		  AND start_time <= $3::time
		ORDER BY start_time
		LIMIT 1
	`, date, tod, horizon)
	cl, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Class{}, model.ErrNotFound
	}
	return cl, err
}
