package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagcheck/internal/store"
)

const callerUID = "stu-uid-1"

func seedStudent(m *store.Memory) {
	m.Seed(store.Students, callerUID, map[string]any{
		"name":        "Lee",
		"student_id":  "20231234",
		"device_uuid": "dev-1",
		"token":       "tok-1",
	})
}

func newRecorderAt(m *store.Memory, at time.Time) *Recorder {
	return NewRecorder(m, NewResolver(m), func() time.Time { return at })
}

func TestCheckInCreatesLinkedPair(t *testing.T) {
	m := store.NewMemory()
	seedStudent(m)
	seedAlgorithms(m)
	at := tuesdayAt(9, 7, 0)
	rec := newRecorderAt(m, at)

	receipt, err := rec.CheckIn(context.Background(), "dev-1", "ROOM-7", callerUID)
	require.NoError(t, err)
	require.NotEmpty(t, receipt.RecordID)
	assert.True(t, receipt.Timestamp.Equal(at))

	studentCol := store.StudentHistory(callerUID)
	professorCol := store.ProfessorHistory("prof-uid-1")
	require.Equal(t, 1, m.Count(studentCol))
	require.Equal(t, 1, m.Count(professorCol))

	studentRec, ok := m.Get(studentCol, receipt.RecordID)
	require.True(t, ok)
	assert.Equal(t, "20231234", studentRec.Str("student_id"))
	assert.Equal(t, "Lee", studentRec.Str("student_name"))
	assert.Equal(t, "Algorithms", studentRec.Str("subject_name"))
	assert.Equal(t, ResultOK, studentRec.Str("result"))

	mirrors, err := m.Query(context.Background(), professorCol, store.Query{})
	require.NoError(t, err)
	require.Len(t, mirrors, 1)
	assert.Equal(t, receipt.RecordID, mirrors[0].Str("ref_id"))
	assert.Equal(t, "Kim", mirrors[0].Str("professor_name"))
	assert.Equal(t, studentRec.Float("timestamp"), mirrors[0].Float("timestamp"))
}

func TestCheckInUnknownDeviceWritesNothing(t *testing.T) {
	m := store.NewMemory()
	seedAlgorithms(m)
	rec := newRecorderAt(m, tuesdayAt(9, 7, 0))

	_, err := rec.CheckIn(context.Background(), "dev-unknown", "ROOM-7", callerUID)
	assert.ErrorIs(t, err, ErrStudentNotRegistered)
	assert.Equal(t, 0, m.Count(store.StudentHistory(callerUID)))
	assert.Equal(t, 0, m.Count(store.ProfessorHistory("prof-uid-1")))
}

func TestCheckInOutsideWindowWritesNothing(t *testing.T) {
	m := store.NewMemory()
	seedStudent(m)
	seedAlgorithms(m)
	rec := newRecorderAt(m, tuesdayAt(9, 11, 0))

	_, err := rec.CheckIn(context.Background(), "dev-1", "ROOM-7", callerUID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, m.Count(store.StudentHistory(callerUID)))
	assert.Equal(t, 0, m.Count(store.ProfessorHistory("prof-uid-1")))
}

func TestCheckInSameHourIsDuplicate(t *testing.T) {
	m := store.NewMemory()
	seedStudent(m)
	seedAlgorithms(m)
	ctx := context.Background()

	_, err := newRecorderAt(m, tuesdayAt(9, 7, 0)).CheckIn(ctx, "dev-1", "ROOM-7", callerUID)
	require.NoError(t, err)

	_, err = newRecorderAt(m, tuesdayAt(9, 8, 0)).CheckIn(ctx, "dev-1", "ROOM-7", callerUID)
	assert.ErrorIs(t, err, ErrDuplicateAttendance)

	assert.Equal(t, 1, m.Count(store.StudentHistory(callerUID)))
	assert.Equal(t, 1, m.Count(store.ProfessorHistory("prof-uid-1")))
}

func TestCheckInDifferentHoursBothSucceed(t *testing.T) {
	m := store.NewMemory()
	seedStudent(m)
	// Window straddling the top of the hour: 09:55 + 10 minutes.
	m.Seed(store.Subjects, "subj-doc-1", map[string]any{
		"id":           "SUBJ1",
		"name":         "Late Lecture",
		"day_week":     1,
		"start_at":     "09:55",
		"tag_uuid":     "ROOM-7",
		"professor_id": "P100",
		"valid_time":   10,
	})
	m.Seed(store.Professors, "prof-uid-1", map[string]any{"id": "P100", "name": "Kim"})
	ctx := context.Background()

	_, err := newRecorderAt(m, tuesdayAt(9, 58, 0)).CheckIn(ctx, "dev-1", "ROOM-7", callerUID)
	require.NoError(t, err)

	_, err = newRecorderAt(m, tuesdayAt(10, 2, 0)).CheckIn(ctx, "dev-1", "ROOM-7", callerUID)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Count(store.StudentHistory(callerUID)))
	assert.Equal(t, 2, m.Count(store.ProfessorHistory("prof-uid-1")))
}

func TestCheckInSameHourNextWeekSucceeds(t *testing.T) {
	m := store.NewMemory()
	seedStudent(m)
	seedAlgorithms(m)
	ctx := context.Background()

	_, err := newRecorderAt(m, tuesdayAt(9, 7, 0)).CheckIn(ctx, "dev-1", "ROOM-7", callerUID)
	require.NoError(t, err)

	// Same hour bucket, different calendar date.
	nextWeek := time.Date(2024, 4, 16, 9, 7, 0, 0, Zone)
	_, err = newRecorderAt(m, nextWeek).CheckIn(ctx, "dev-1", "ROOM-7", callerUID)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count(store.StudentHistory(callerUID)))
}

func TestStudentDuplicateDevicePicksDeterministically(t *testing.T) {
	m := store.NewMemory()
	m.Seed(store.Students, "stu-uid-b", map[string]any{"name": "B", "student_id": "2", "device_uuid": "dev-1"})
	m.Seed(store.Students, "stu-uid-a", map[string]any{"name": "A", "student_id": "1", "device_uuid": "dev-1"})
	rec := newRecorderAt(m, tuesdayAt(9, 7, 0))

	student, err := rec.Student(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-uid-a", student.UID)
}

func TestAvailableSubjects(t *testing.T) {
	m := store.NewMemory()
	seedAlgorithms(m)
	m.Seed(store.Subjects, "subj-doc-2", map[string]any{
		"id":           "SUBJ2",
		"name":         "Compilers",
		"day_week":     1,
		"start_at":     "13:00",
		"end_at":       "14:15",
		"tag_uuid":     "ROOM-7",
		"professor_id": "P100",
		"valid_time":   10,
		"department":   "CS",
		"major":        "Software",
	})
	rec := newRecorderAt(m, tuesdayAt(9, 7, 0))

	summaries, err := rec.AvailableSubjects(context.Background(), "ROOM-7", 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Algorithms", summaries[0].Name)
	assert.Equal(t, "Compilers", summaries[1].Name)

	summaries, err = rec.AvailableSubjects(context.Background(), "ROOM-7", 3)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
