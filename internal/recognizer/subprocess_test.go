package recognizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

// writeScript drops an executable shell script and returns its path. The
// adapter's interpreter is set to sh so tests do not need a Python toolchain.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestProcessFrameParsesResult(t *testing.T) {
	script := writeScript(t, `echo '{"faces":[{"x":1,"y":2,"width":3,"height":4,"recognized":true,"name":"Ada","student_id":"S1","confidence":0.91}],"attendance_marked":[{"student_id":"S1","student_name":"Ada"}],"total_faces":1}'`)
	sp := NewSubprocess("sh", script, script, 5*time.Second)

	res, err := sp.ProcessFrame(context.Background(), "frame.jpg", "C1", "term-1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalFaces)
	require.Len(t, res.Marked, 1)
	assert.Equal(t, "S1", res.Marked[0].StudentID)
	require.Len(t, res.Faces, 1)
	assert.True(t, res.Faces[0].Recognized)
}

func TestProcessFrameEmptyResultNotNil(t *testing.T) {
	script := writeScript(t, `echo '{"faces":[],"attendance_marked":[]}'`)
	sp := NewSubprocess("sh", script, script, 5*time.Second)

	res, err := sp.ProcessFrame(context.Background(), "frame.jpg", "C1", "term-1")
	require.NoError(t, err)
	assert.NotNil(t, res.Faces)
	assert.NotNil(t, res.Marked)
	assert.Empty(t, res.Marked)
}

func TestProcessFrameScriptError(t *testing.T) {
	script := writeScript(t, `echo '{"error":"Could not load image"}'`)
	sp := NewSubprocess("sh", script, script, 5*time.Second)

	_, err := sp.ProcessFrame(context.Background(), "frame.jpg", "C1", "term-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not load image")
}

func TestProcessFrameBadJSON(t *testing.T) {
	script := writeScript(t, `echo 'Traceback (most recent call last)'`)
	sp := NewSubprocess("sh", script, script, 5*time.Second)

	_, err := sp.ProcessFrame(context.Background(), "frame.jpg", "C1", "term-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparsable")
}

func TestProcessFrameNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "boom" >&2; exit 3`)
	sp := NewSubprocess("sh", script, script, 5*time.Second)

	_, err := sp.ProcessFrame(context.Background(), "frame.jpg", "C1", "term-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestProcessFrameTimeoutKillsProcess(t *testing.T) {
	script := writeScript(t, `sleep 30`)
	sp := NewSubprocess("sh", script, script, 200*time.Millisecond)

	start := time.Now()
	_, err := sp.ProcessFrame(context.Background(), "frame.jpg", "C1", "term-1")
	assert.ErrorIs(t, err, model.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second, "call must not wait for the full sleep")
}

func TestRegisterFace(t *testing.T) {
	script := writeScript(t, `exit 0`)
	sp := NewSubprocess("sh", script, script, 5*time.Second)

	err := sp.RegisterFace(context.Background(), "S1", "Ada", "ada@example.com", "photo.jpg")
	assert.NoError(t, err)
}
