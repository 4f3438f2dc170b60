package gateway

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imayankmani/attendance-management-system/internal/hub"
	"github.com/imayankmani/attendance-management-system/internal/model"
	"github.com/imayankmani/attendance-management-system/internal/recognizer"
)

type stubRecognizer struct {
	result    *recognizer.FrameResult
	err       error
	seenPath  string
	pathExist bool
}

func (s *stubRecognizer) ProcessFrame(_ context.Context, imagePath, _, _ string) (*recognizer.FrameResult, error) {
	s.seenPath = imagePath
	if _, err := os.Stat(imagePath); err == nil {
		s.pathExist = true
	}
	return s.result, s.err
}

func (s *stubRecognizer) RegisterFace(context.Context, string, string, string, string) error {
	return nil
}

type stubMarker struct {
	marks []string
	err   error
}

func (s *stubMarker) Mark(_ context.Context, studentID, classID, status, _ string) (model.AttendanceRecord, error) {
	if s.err != nil {
		return model.AttendanceRecord{}, s.err
	}
	s.marks = append(s.marks, studentID)
	return model.AttendanceRecord{StudentID: studentID, ClassID: classID, Status: status, MarkedAt: time.Now()}, nil
}

type stubBroadcaster struct {
	events []hub.Event
}

func (s *stubBroadcaster) Broadcast(evt hub.Event) { s.events = append(s.events, evt) }

func frameFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, "frames"))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSubmitFrameMarksAndBroadcasts(t *testing.T) {
	dir := t.TempDir()
	rec := &stubRecognizer{result: &recognizer.FrameResult{
		Faces:      []recognizer.Face{{Recognized: true, Name: "Ada", StudentID: "S1", Confidence: 0.9}},
		Marked:     []recognizer.Mark{{StudentID: "S1", StudentName: "Ada"}},
		TotalFaces: 1,
	}}
	marker := &stubMarker{}
	caster := &stubBroadcaster{}
	gw, err := New(rec, marker, caster, dir)
	require.NoError(t, err)

	res, err := gw.SubmitFrame(context.Background(), []byte("jpegbytes"), "C1", "term-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"S1"}, marker.marks)
	require.Len(t, caster.events, 1)
	assert.Equal(t, "attendance_marked", caster.events[0].Type)
	require.Len(t, res.Marked, 1)
	assert.Equal(t, "Ada", res.Marked[0].StudentName)

	assert.True(t, rec.pathExist, "frame file must exist while the recognizer runs")
	assert.Empty(t, frameFiles(t, dir), "frame file must be removed after completion")
}

func TestSubmitFrameCleansUpOnDelegateFailure(t *testing.T) {
	dir := t.TempDir()
	rec := &stubRecognizer{err: errors.New("recognizer exited 1: boom")}
	gw, err := New(rec, &stubMarker{}, &stubBroadcaster{}, dir)
	require.NoError(t, err)

	_, err = gw.SubmitFrame(context.Background(), []byte("jpegbytes"), "C1", "term-1")
	require.Error(t, err)
	assert.Empty(t, frameFiles(t, dir))
}

func TestSubmitFrameCleansUpOnTimeout(t *testing.T) {
	dir := t.TempDir()
	rec := &stubRecognizer{err: model.ErrTimeout}
	gw, err := New(rec, &stubMarker{}, &stubBroadcaster{}, dir)
	require.NoError(t, err)

	_, err = gw.SubmitFrame(context.Background(), []byte("jpegbytes"), "C1", "term-1")
	assert.ErrorIs(t, err, model.ErrTimeout)
	assert.Empty(t, frameFiles(t, dir))
}

func TestSubmitFrameValidatesInput(t *testing.T) {
	dir := t.TempDir()
	gw, err := New(&stubRecognizer{}, &stubMarker{}, &stubBroadcaster{}, dir)
	require.NoError(t, err)

	for _, tc := range []struct {
		name              string
		frame             []byte
		classID, terminal string
	}{
		{"empty frame", nil, "C1", "term-1"},
		{"missing class", []byte("x"), "", "term-1"},
		{"missing terminal", []byte("x"), "C1", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gw.SubmitFrame(context.Background(), tc.frame, tc.classID, tc.terminal)
			assert.ErrorIs(t, err, model.ErrInvalid)
		})
	}
}

func TestSubmitFrameSkipsFailedMarks(t *testing.T) {
	dir := t.TempDir()
	rec := &stubRecognizer{result: &recognizer.FrameResult{
		Marked:     []recognizer.Mark{{StudentID: "ghost", StudentName: "Ghost"}},
		TotalFaces: 1,
	}}
	marker := &stubMarker{err: model.ErrNotFound}
	caster := &stubBroadcaster{}
	gw, err := New(rec, marker, caster, dir)
	require.NoError(t, err)

	res, err := gw.SubmitFrame(context.Background(), []byte("jpegbytes"), "C1", "term-1")
	require.NoError(t, err)
	assert.Empty(t, res.Marked)
	assert.Empty(t, caster.events)
}

func TestSubmitFrameNamespacesConcurrentTerminals(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	rec := &recordingRecognizer{paths: &paths}
	gw, err := New(rec, &stubMarker{}, &stubBroadcaster{}, dir)
	require.NoError(t, err)

	for _, terminal := range []string{"term-1", "term-2", "term-1"} {
		_, err := gw.SubmitFrame(context.Background(), []byte("jpegbytes"), "C1", terminal)
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, p := range paths {
		assert.False(t, seen[p], "paths must be unique across submissions")
		seen[p] = true
	}
}

type recordingRecognizer struct {
	paths *[]string
}

func (r *recordingRecognizer) ProcessFrame(_ context.Context, imagePath, _, _ string) (*recognizer.FrameResult, error) {
	*r.paths = append(*r.paths, imagePath)
	return &recognizer.FrameResult{Faces: []recognizer.Face{}, Marked: []recognizer.Mark{}}, nil
}

func (r *recordingRecognizer) RegisterFace(context.Context, string, string, string, string) error {
	return nil
}
