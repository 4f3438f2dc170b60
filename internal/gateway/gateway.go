// Package gateway accepts camera frames from terminals, delegates recognition
// to the external process and applies the resulting attendance marks.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/imayankmani/attendance-management-system/internal/hub"
	"github.com/imayankmani/attendance-management-system/internal/model"
	"github.com/imayankmani/attendance-management-system/internal/recognizer"
)

var framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_frames_processed_total",
	Help: "Camera frames submitted for recognition, by outcome.",
}, []string{"outcome"})

// Marker applies attendance marks coming back from the recognizer.
type Marker interface {
	Mark(ctx context.Context, studentID, classID, status, terminalID string) (model.AttendanceRecord, error)
}

// Broadcaster pushes events to connected real-time clients.
type Broadcaster interface {
	Broadcast(evt hub.Event)
}

// MarkedStudent is one attendance change caused by a frame.
type MarkedStudent struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

// Result is the response for one submitted frame.
type Result struct {
	Faces      []recognizer.Face `json:"faces"`
	Marked     []MarkedStudent   `json:"attendance_marked"`
	TotalFaces int               `json:"total_faces"`
}

// Gateway wires frame intake to the recognizer, attendance service and hub.
type Gateway struct {
	rec      recognizer.Recognizer
	marker   Marker
	notifier Broadcaster
	frameDir string
}

// New creates a gateway. Frames are spooled under dir/frames.
func New(rec recognizer.Recognizer, marker Marker, notifier Broadcaster, dir string) (*Gateway, error) {
	frameDir := filepath.Join(dir, "frames")
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		return nil, fmt.Errorf("frame dir: %w", err)
	}
	return &Gateway{rec: rec, marker: marker, notifier: notifier, frameDir: frameDir}, nil
}

// SubmitFrame persists the frame transiently, runs recognition with a hard
// timeout, applies each recognized mark and broadcasts a notification per
// mark. The transient file is always removed, on success, delegate failure
// and timeout alike.
func (g *Gateway) SubmitFrame(ctx context.Context, frame []byte, classID, terminalID string) (*Result, error) {
	if len(frame) == 0 || classID == "" || terminalID == "" {
		return nil, fmt.Errorf("%w: frame, class_id and terminal_id required", model.ErrInvalid)
	}

	// Namespaced per terminal and per request so concurrent submissions
	// never collide.
	path := filepath.Join(g.frameDir, fmt.Sprintf("%s_%d.jpg", sanitize(terminalID), time.Now().UnixNano()))
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		framesTotal.WithLabelValues("spool_error").Inc()
		return nil, fmt.Errorf("spool frame: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("frame cleanup failed for %s: %v", path, err)
		}
	}()

	res, err := g.rec.ProcessFrame(ctx, path, classID, terminalID)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, model.ErrTimeout) {
			framesTotal.WithLabelValues("timeout").Inc()
		} else {
			framesTotal.WithLabelValues("delegate_error").Inc()
		}
		return nil, err
	}

	out := &Result{Faces: res.Faces, Marked: []MarkedStudent{}, TotalFaces: res.TotalFaces}
	for _, m := range res.Marked {
		rec, err := g.marker.Mark(ctx, m.StudentID, classID, model.StatusPresent, terminalID)
		if err != nil {
			// A single bad identity must not fail the whole frame.
			log.Printf("mark from frame failed for student %s class %s: %v", m.StudentID, classID, err)
			continue
		}
		out.Marked = append(out.Marked, MarkedStudent{StudentID: m.StudentID, StudentName: m.StudentName})
		g.notifier.Broadcast(hub.NewEvent("attendance_marked", map[string]any{
			"student_id":   m.StudentID,
			"student_name": m.StudentName,
			"class_id":     classID,
			"terminal_id":  terminalID,
			"status":       rec.Status,
			"marked_at":    rec.MarkedAt,
		}))
	}

	framesTotal.WithLabelValues("ok").Inc()
	return out, nil
}

// sanitize keeps terminal ids filesystem-safe.
func sanitize(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
