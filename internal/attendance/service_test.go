package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imayankmani/attendance-management-system/internal/model"
)

type fakeStore struct {
	students map[string]bool
	classes  map[string]bool
	records  map[[2]string]model.AttendanceRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students: map[string]bool{},
		classes:  map[string]bool{},
		records:  map[[2]string]model.AttendanceRecord{},
	}
}

func (f *fakeStore) StudentExists(_ context.Context, id string) (bool, error) {
	return f.students[id], nil
}

func (f *fakeStore) ClassExists(_ context.Context, id string) (bool, error) {
	return f.classes[id], nil
}

func (f *fakeStore) CurrentStatus(_ context.Context, sid, cid string) (string, bool, error) {
	rec, ok := f.records[[2]string{sid, cid}]
	return rec.Status, ok, nil
}

func (f *fakeStore) Upsert(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	rec.MarkedAt = time.Now()
	f.records[[2]string{rec.StudentID, rec.ClassID}] = rec
	return rec, nil
}

func (f *fakeStore) ClassRoster(_ context.Context, cid string) ([]model.RosterEntry, error) {
	var out []model.RosterEntry
	for key, rec := range f.records {
		if key[1] == cid {
			out = append(out, model.RosterEntry{StudentID: rec.StudentID, Status: rec.Status, MarkedAt: rec.MarkedAt})
		}
	}
	return out, nil
}

func (f *fakeStore) PresentToday(_ context.Context, _ string) (int, error) {
	n := 0
	for _, rec := range f.records {
		if rec.Status == model.StatusPresent {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) StudentCounts(_ context.Context, sid string) (int, int, error) {
	total, present := 0, 0
	for key, rec := range f.records {
		if key[0] == sid {
			total++
			if rec.Status == model.StatusPresent {
				present++
			}
		}
	}
	return total, present, nil
}

type nopRecorder struct{ lines []string }

func (r *nopRecorder) Append(_ context.Context, msg string) { r.lines = append(r.lines, msg) }

func setup() (*Service, *fakeStore, *nopRecorder) {
	store := newFakeStore()
	store.students["S1"] = true
	store.students["S2"] = true
	store.classes["C1"] = true
	rec := &nopRecorder{}
	return NewService(store, rec), store, rec
}

func TestMarkTwiceLeavesOneRecord(t *testing.T) {
	svc, store, _ := setup()
	ctx := context.Background()

	_, err := svc.Mark(ctx, "S1", "C1", model.StatusPresent, "term-1")
	require.NoError(t, err)
	second, err := svc.Mark(ctx, "S1", "C1", model.StatusAbsent, "term-2")
	require.NoError(t, err)

	assert.Len(t, store.records, 1)
	got := store.records[[2]string{"S1", "C1"}]
	assert.Equal(t, model.StatusAbsent, got.Status)
	assert.Equal(t, second.MarkedAt, got.MarkedAt)
}

func TestMarkUnknownStudent(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Mark(context.Background(), "nope", "C1", model.StatusPresent, "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMarkUnknownClass(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Mark(context.Background(), "S1", "nope", model.StatusPresent, "")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMarkRejectsBadStatus(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Mark(context.Background(), "S1", "C1", "late", "")
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestMarkLogsTransition(t *testing.T) {
	svc, _, rec := setup()
	ctx := context.Background()

	_, err := svc.Mark(ctx, "S1", "C1", model.StatusPresent, "")
	require.NoError(t, err)
	_, err = svc.Mark(ctx, "S1", "C1", model.StatusAbsent, "")
	require.NoError(t, err)

	require.Len(t, rec.lines, 2)
	assert.Contains(t, rec.lines[0], "marked present")
	assert.Contains(t, rec.lines[1], "present -> absent")
}

func TestStudentSummaryEmptyIsZeroRate(t *testing.T) {
	svc, _, _ := setup()

	sum, err := svc.StudentSummary(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total)
	assert.Equal(t, float64(0), sum.Rate)
}

func TestStudentSummaryRounding(t *testing.T) {
	svc, store, _ := setup()
	ctx := context.Background()
	store.classes["C2"] = true
	store.classes["C3"] = true

	for _, mark := range []struct {
		class, status string
	}{
		{"C1", model.StatusPresent},
		{"C2", model.StatusPresent},
		{"C3", model.StatusAbsent},
	} {
		_, err := svc.Mark(ctx, "S1", mark.class, mark.status, "")
		require.NoError(t, err)
	}

	sum, err := svc.StudentSummary(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Present)
	assert.Equal(t, 0.67, sum.Rate)
}

func TestClassAttendanceUnknownClass(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.ClassAttendance(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClassAttendanceEmptyIsNotNil(t *testing.T) {
	svc, _, _ := setup()

	roster, err := svc.ClassAttendance(context.Background(), "C1")
	require.NoError(t, err)
	assert.NotNil(t, roster)
	assert.Empty(t, roster)
}
