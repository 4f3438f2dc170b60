package activity

import (
	"context"
	"database/sql"
	"log"
	"strconv"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// Log appends audit trail entries to Postgres. Append failures are logged and
// swallowed so that audit writes never fail their owning operation.
type Log struct {
	db *sql.DB
}

// NewLog creates an activity log backed by the shared connection pool.
func NewLog(db *sql.DB) *Log {
	return &Log{db: db}
}

// Append records a free-text entry.
func (l *Log) Append(ctx context.Context, message string) {
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO activity_logs (message) VALUES ($1)`, message); err != nil {
		log.Printf("activity log append failed: %v", err)
	}
}

// Recent returns up to limit entries, newest first. A non-empty pattern
// filters entries by case-insensitive substring match.
func (l *Log) Recent(ctx context.Context, limit int, pattern string) ([]model.ActivityEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	query := `SELECT id, message, created_at FROM activity_logs`
	args := []any{}
	if pattern != "" {
		query += ` WHERE message ILIKE '%' || $1 || '%'`
		args = append(args, pattern)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.ID, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
