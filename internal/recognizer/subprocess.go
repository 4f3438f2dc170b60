package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// Subprocess invokes the recognition scripts as out-of-process jobs. Each run
// gets a hard timeout; on expiry the spawned process is killed so no orphaned
// recognizers linger.
type Subprocess struct {
	pythonBin    string
	frameScript  string
	enrollScript string
	timeout      time.Duration
}

var _ Recognizer = (*Subprocess)(nil)

// NewSubprocess creates an adapter around the Python scripts.
func NewSubprocess(pythonBin, frameScript, enrollScript string, timeout time.Duration) *Subprocess {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Subprocess{
		pythonBin:    pythonBin,
		frameScript:  frameScript,
		enrollScript: enrollScript,
		timeout:      timeout,
	}
}

// ProcessFrame runs the frame script and parses its stdout JSON.
func (s *Subprocess) ProcessFrame(ctx context.Context, imagePath, classID, terminalID string) (*FrameResult, error) {
	stdout, err := s.run(ctx, s.frameScript, imagePath, classID, terminalID)
	if err != nil {
		return nil, err
	}

	var out struct {
		FrameResult
		Error string `json:"error"`
	}
	if err := json.Unmarshal(stdout, &out); err != nil {
		log.Printf("recognizer output unparsable: %v; output: %s", err, truncate(stdout, 512))
		return nil, fmt.Errorf("recognizer produced unparsable output: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("recognizer failed: %s", out.Error)
	}
	result := out.FrameResult
	if result.Faces == nil {
		result.Faces = []Face{}
	}
	if result.Marked == nil {
		result.Marked = []Mark{}
	}
	return &result, nil
}

// RegisterFace runs the enrollment script for a student photo. The script
// writes the face encoding through its own database connection.
func (s *Subprocess) RegisterFace(ctx context.Context, studentID, name, email, photoPath string) error {
	_, err := s.run(ctx, s.enrollScript, studentID, name, email, photoPath)
	return err
}

// run executes a script with the configured interpreter, bounded by the hard
// timeout, and returns captured stdout.
func (s *Subprocess) run(ctx context.Context, script string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmdArgs := append([]string{script}, args...)
	cmd := exec.CommandContext(runCtx, s.pythonBin, cmdArgs...)
	// Bound the post-kill wait so an inherited pipe held open by a stray
	// child process cannot hang the caller.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		log.Printf("recognizer %s timed out after %s, process killed", script, s.timeout)
		return nil, model.ErrTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Printf("recognizer %s exited %d: %s", script, exitErr.ExitCode(), truncate(stderr.Bytes(), 512))
			return nil, fmt.Errorf("recognizer exited %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("recognizer spawn failed: %w", err)
	}
	return stdout.Bytes(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
