package student

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// Repository persists students in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const studentCols = `id, student_id, name, email, face_encoding, photo_path, created_at`

// Insert writes a new student. A unique violation on student_id surfaces as
// model.ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, st model.Student) (model.Student, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, student_id, name, email, photo_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, st.ID, st.StudentID, st.Name, st.Email, st.PhotoPath)
	if err := row.Scan(&st.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Student{}, model.ErrDuplicate
		}
		return model.Student{}, err
	}
	return st, nil
}

// List returns all students ordered by external identifier.
func (r *Repository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+studentCols+` FROM students ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.StudentID, &st.Name, &st.Email, &st.FaceEncoding, &st.PhotoPath, &st.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// Get returns a student by external identifier.
func (r *Repository) Get(ctx context.Context, studentID string) (model.Student, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+studentCols+` FROM students WHERE student_id = $1`, studentID)
	var st model.Student
	if err := row.Scan(&st.ID, &st.StudentID, &st.Name, &st.Email, &st.FaceEncoding, &st.PhotoPath, &st.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Student{}, model.ErrNotFound
		}
		return model.Student{}, err
	}
	return st, nil
}

// Delete removes a student; attendance rows cascade at the schema level.
func (r *Repository) Delete(ctx context.Context, studentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Count returns the number of registered students.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n)
	return n, err
}
