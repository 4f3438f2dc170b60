package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// Store is the repository surface the service depends on.
type Store interface {
	StudentExists(ctx context.Context, studentID string) (bool, error)
	ClassExists(ctx context.Context, classID string) (bool, error)
	CurrentStatus(ctx context.Context, studentID, classID string) (string, bool, error)
	Upsert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	ClassRoster(ctx context.Context, classID string) ([]model.RosterEntry, error)
	StudentCounts(ctx context.Context, studentID string) (total, present int, err error)
	PresentToday(ctx context.Context, date string) (int, error)
}

// Recorder appends audit trail entries.
type Recorder interface {
	Append(ctx context.Context, message string)
}

// Service owns the at-most-one-record-per-(student, class) semantics.
type Service struct {
	store    Store
	activity Recorder
}

// NewService creates a service backed by a store.
func NewService(store Store, activity Recorder) *Service {
	return &Service{store: store, activity: activity}
}

// Mark upserts the status for a (student, class) pair. Both identifiers must
// reference existing rows; a repeated mark overwrites the status and
// refreshes the timestamp instead of creating a second row.
func (s *Service) Mark(ctx context.Context, studentID, classID, status, terminalID string) (model.AttendanceRecord, error) {
	if studentID == "" || classID == "" {
		return model.AttendanceRecord{}, fmt.Errorf("%w: student and class required", model.ErrInvalid)
	}
	if status != model.StatusPresent && status != model.StatusAbsent {
		return model.AttendanceRecord{}, fmt.Errorf("%w: status must be present or absent", model.ErrInvalid)
	}

	if ok, err := s.store.StudentExists(ctx, studentID); err != nil {
		return model.AttendanceRecord{}, err
	} else if !ok {
		return model.AttendanceRecord{}, fmt.Errorf("student %s: %w", studentID, model.ErrNotFound)
	}
	if ok, err := s.store.ClassExists(ctx, classID); err != nil {
		return model.AttendanceRecord{}, err
	} else if !ok {
		return model.AttendanceRecord{}, fmt.Errorf("class %s: %w", classID, model.ErrNotFound)
	}

	// Old status only feeds the audit line; the upsert itself is atomic.
	oldStatus, existed, err := s.store.CurrentStatus(ctx, studentID, classID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	rec, err := s.store.Upsert(ctx, model.AttendanceRecord{
		StudentID:  studentID,
		ClassID:    classID,
		Status:     status,
		TerminalID: terminalID,
	})
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	if existed {
		s.activity.Append(ctx, fmt.Sprintf("attendance for student %s in class %s re-marked %s -> %s",
			studentID, classID, oldStatus, status))
	} else {
		s.activity.Append(ctx, fmt.Sprintf("attendance for student %s in class %s marked %s",
			studentID, classID, status))
	}
	return rec, nil
}

// PresentToday counts present marks for classes on now's local calendar date.
func (s *Service) PresentToday(ctx context.Context, now time.Time) (int, error) {
	return s.store.PresentToday(ctx, now.Local().Format("2006-01-02"))
}

// ClassAttendance returns the roster for a class ordered by student name.
func (s *Service) ClassAttendance(ctx context.Context, classID string) ([]model.RosterEntry, error) {
	if ok, err := s.store.ClassExists(ctx, classID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("class %s: %w", classID, model.ErrNotFound)
	}
	roster, err := s.store.ClassRoster(ctx, classID)
	if err != nil {
		return nil, err
	}
	if roster == nil {
		roster = []model.RosterEntry{}
	}
	return roster, nil
}

// StudentSummary aggregates a student's records. Rate is present/total
// rounded to two decimals and 0 when the student has no records.
func (s *Service) StudentSummary(ctx context.Context, studentID string) (model.AttendanceSummary, error) {
	if ok, err := s.store.StudentExists(ctx, studentID); err != nil {
		return model.AttendanceSummary{}, err
	} else if !ok {
		return model.AttendanceSummary{}, fmt.Errorf("student %s: %w", studentID, model.ErrNotFound)
	}
	total, present, err := s.store.StudentCounts(ctx, studentID)
	if err != nil {
		return model.AttendanceSummary{}, err
	}
	summary := model.AttendanceSummary{StudentID: studentID, Total: total, Present: present}
	if total > 0 {
		summary.Rate = math.Round(float64(present)/float64(total)*100) / 100
	}
	return summary, nil
}
