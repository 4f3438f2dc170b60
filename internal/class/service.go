package class

import (
	"context"
	"fmt"
	"time"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// Recorder appends audit trail entries.
type Recorder interface {
	Append(ctx context.Context, message string)
}

// Scheduler is the slice of the repository the resolver needs; split out so
// resolver logic is testable without Postgres.
type Scheduler interface {
	ActiveAt(ctx context.Context, date, tod string) (model.Class, error)
	NextAfter(ctx context.Context, date, tod, horizon string) (model.Class, error)
}

// Store is the persistence surface for class lifecycle operations.
type Store interface {
	Insert(ctx context.Context, cl model.Class) (model.Class, error)
	List(ctx context.Context) ([]model.Class, error)
	Get(ctx context.Context, id string) (model.Class, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Service coordinates class lifecycle and schedule resolution. All scheduling
// comparisons use the server's local timezone: the calendar date and the
// time of day are always derived from the same instant.
type Service struct {
	repo      Store
	sched     Scheduler
	activity  Recorder
	lookahead time.Duration
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository, activity Recorder, lookahead time.Duration) *Service {
	if lookahead <= 0 {
		lookahead = time.Hour
	}
	return &Service{repo: repo, sched: repo, activity: activity, lookahead: lookahead}
}

// Create validates and stores a class. Start must precede end.
func (s *Service) Create(ctx context.Context, name, date, start, end string) (model.Class, error) {
	if name == "" {
		return model.Class{}, fmt.Errorf("%w: name required", model.ErrInvalid)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return model.Class{}, fmt.Errorf("%w: date must be YYYY-MM-DD", model.ErrInvalid)
	}
	startT, err := parseTimeOfDay(start)
	if err != nil {
		return model.Class{}, fmt.Errorf("%w: start_time must be HH:MM or HH:MM:SS", model.ErrInvalid)
	}
	endT, err := parseTimeOfDay(end)
	if err != nil {
		return model.Class{}, fmt.Errorf("%w: end_time must be HH:MM or HH:MM:SS", model.ErrInvalid)
	}
	if !startT.Before(endT) {
		return model.Class{}, fmt.Errorf("%w: start_time must precede end_time", model.ErrInvalid)
	}

	cl, err := s.repo.Insert(ctx, model.Class{
		Name:      name,
		Date:      date,
		StartTime: startT.Format("15:04:05"),
		EndTime:   endT.Format("15:04:05"),
	})
	if err != nil {
		return model.Class{}, err
	}
	s.activity.Append(ctx, fmt.Sprintf("class %q scheduled on %s %s-%s", cl.Name, cl.Date, cl.StartTime, cl.EndTime))
	return cl, nil
}

// Count returns the number of classes.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// List returns all classes.
func (s *Service) List(ctx context.Context) ([]model.Class, error) {
	return s.repo.List(ctx)
}

// Get returns one class by id.
func (s *Service) Get(ctx context.Context, id string) (model.Class, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes a class and its attendance rows.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.activity.Append(ctx, fmt.Sprintf("class %s deleted", id))
	return nil
}

// Current returns the class whose window contains now, or model.ErrNotFound.
func (s *Service) Current(ctx context.Context, now time.Time) (model.Class, error) {
	date, tod := localDayTime(now)
	return s.sched.ActiveAt(ctx, date, tod)
}

// Upcoming returns the earliest class today starting strictly after now but
// within the lookahead window. The window is clamped to the current calendar
// day so a late-evening poll never matches tomorrow's classes.
func (s *Service) Upcoming(ctx context.Context, now time.Time) (model.Class, error) {
	date, tod := localDayTime(now)
	horizon := now.Add(s.lookahead)
	horizonDate, horizonTod := localDayTime(horizon)
	if horizonDate != date {
		horizonTod = "23:59:59"
	}
	return s.sched.NextAfter(ctx, date, tod, horizonTod)
}

// localDayTime derives the calendar date and time of day from one instant in
// the server's local timezone.
func localDayTime(t time.Time) (date, tod string) {
	local := t.Local()
	return local.Format("2006-01-02"), local.Format("15:04:05")
}

func parseTimeOfDay(v string) (time.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time of day %q", v)
}
