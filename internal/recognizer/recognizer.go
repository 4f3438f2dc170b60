// Package recognizer wraps the external Python face-recognition capability
// behind a narrow interface so the subprocess lifecycle stays out of callers.
package recognizer

import "context"

// Face is one detected face in a processed frame.
type Face struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Recognized bool    `json:"recognized"`
	Name       string  `json:"name"`
	StudentID  string  `json:"student_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Mark is a student the recognizer identified with enough confidence to mark.
type Mark struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

// FrameResult is the structured output of one frame-processing run.
type FrameResult struct {
	Faces      []Face `json:"faces"`
	Marked     []Mark `json:"attendance_marked"`
	TotalFaces int    `json:"total_faces"`
}

// Recognizer is the capability interface for the external face service. A
// future in-process or network-based recognizer substitutes here without
// touching callers.
type Recognizer interface {
	// ProcessFrame identifies students in the frame at imagePath.
	ProcessFrame(ctx context.Context, imagePath, classID, terminalID string) (*FrameResult, error)
	// RegisterFace computes and stores a face encoding for a student photo.
	RegisterFace(ctx context.Context, studentID, name, email, photoPath string) error
}
