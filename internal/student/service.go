package student

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/imayankmani/attendance-management-system/internal/model"
	"github.com/imayankmani/attendance-management-system/internal/queue"
)

// Recorder appends audit trail entries.
type Recorder interface {
	Append(ctx context.Context, message string)
}

// EnrollJob is the queue payload handed to the worker for face enrollment.
type EnrollJob struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	PhotoPath string `json:"photo_path"`
}

// Service coordinates student lifecycle: CRUD, photo cleanup and the async
// face-enrollment handoff.
type Service struct {
	repo     *Repository
	activity Recorder
	jobs     queue.Queue
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository, activity Recorder, jobs queue.Queue) *Service {
	return &Service{repo: repo, activity: activity, jobs: jobs}
}

// Create registers a student. When photoPath is non-empty an enrollment job is
// queued so the external recognizer can compute the face encoding; enrollment
// failure leaves the encoding empty and never blocks registration.
func (s *Service) Create(ctx context.Context, studentID, name, email, photoPath string) (model.Student, error) {
	if studentID == "" || name == "" {
		return model.Student{}, fmt.Errorf("%w: student_id and name required", model.ErrInvalid)
	}
	st, err := s.repo.Insert(ctx, model.Student{
		StudentID: studentID,
		Name:      name,
		Email:     email,
		PhotoPath: photoPath,
	})
	if err != nil {
		return model.Student{}, err
	}
	s.activity.Append(ctx, fmt.Sprintf("student %s (%s) registered", st.StudentID, st.Name))

	if photoPath != "" && s.jobs != nil {
		body, _ := json.Marshal(EnrollJob{
			StudentID: st.StudentID,
			Name:      st.Name,
			Email:     st.Email,
			PhotoPath: photoPath,
		})
		if err := s.jobs.Publish(ctx, queue.Message{Type: "enroll_face", Body: body}); err != nil {
			log.Printf("enroll job publish failed for %s: %v", st.StudentID, err)
		}
	}
	return st, nil
}

// Count returns the number of registered students.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// List returns all students.
func (s *Service) List(ctx context.Context) ([]model.Student, error) {
	return s.repo.List(ctx)
}

// Get returns one student by external identifier.
func (s *Service) Get(ctx context.Context, studentID string) (model.Student, error) {
	return s.repo.Get(ctx, studentID)
}

// Delete removes a student, their attendance rows (schema cascade) and the
// stored photo file. Unknown identifiers return model.ErrNotFound.
func (s *Service) Delete(ctx context.Context, studentID string) error {
	st, err := s.repo.Get(ctx, studentID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, studentID); err != nil {
		return err
	}
	if st.PhotoPath != "" {
		if err := os.Remove(st.PhotoPath); err != nil && !os.IsNotExist(err) {
			log.Printf("photo cleanup failed for %s: %v", studentID, err)
		}
	}
	s.activity.Append(ctx, fmt.Sprintf("student %s deleted", studentID))
	return nil
}
