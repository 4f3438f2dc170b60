package model

import (
	"errors"
	"time"
)

// Sentinel errors shared across services; handlers map them to HTTP codes.
var (
	ErrInvalid       = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already exists")
	ErrNotConfigured = errors.New("not configured")
	ErrTimeout       = errors.New("processing timed out")
)

// Attendance statuses.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Student represents a registered student. FaceEncoding is written only by
// the external recognizer and is treated as opaque text here; empty means no
// biometric profile is available.
type Student struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	FaceEncoding string    `json:"-"`
	PhotoPath    string    `json:"photo_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasFaceProfile reports whether the external recognizer has enrolled this
// student.
func (s Student) HasFaceProfile() bool { return s.FaceEncoding != "" }

// Class is a single scheduled session on a calendar date. Date is "2006-01-02",
// StartTime and EndTime are "15:04:05" in the server's local timezone.
type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceRecord is the single row per (student, class) pair.
type AttendanceRecord struct {
	StudentID  string    `json:"student_id"`
	ClassID    string    `json:"class_id"`
	Status     string    `json:"status"`
	MarkedAt   time.Time `json:"marked_at"`
	TerminalID string    `json:"terminal_id,omitempty"`
}

// RosterEntry is an attendance record joined with student details.
type RosterEntry struct {
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	MarkedAt  time.Time `json:"marked_at"`
}

// AttendanceSummary aggregates a student's attendance across all classes.
type AttendanceSummary struct {
	StudentID string  `json:"student_id"`
	Total     int     `json:"total"`
	Present   int     `json:"present"`
	Rate      float64 `json:"rate"`
}

// ReportRow is one line of the attendance report.
type ReportRow struct {
	ClassDate string    `json:"class_date"`
	ClassName string    `json:"class_name"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	MarkedAt  time.Time `json:"marked_at"`
}

// ActivityEntry is one append-only audit trail line.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
