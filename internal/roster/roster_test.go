package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tagcheck/internal/store"
)

func TestStudentFromDoc(t *testing.T) {
	s := StudentFromDoc(store.Document{ID: "stu-uid-1", Data: map[string]any{
		"name":        "Lee",
		"student_id":  "20231234",
		"device_uuid": "dev-1",
		"token":       "tok-1",
	}})
	assert.Equal(t, Student{
		UID:        "stu-uid-1",
		Name:       "Lee",
		StudentID:  "20231234",
		DeviceUUID: "dev-1",
		Token:      "tok-1",
	}, s)
}

func TestStudentFromDocMissingToken(t *testing.T) {
	s := StudentFromDoc(store.Document{ID: "stu-uid-2", Data: map[string]any{
		"name":       "Park",
		"student_id": "20235678",
	}})
	assert.Equal(t, "", s.Token)
	assert.Equal(t, "Park", s.Name)
}

func TestSubjectFromDoc(t *testing.T) {
	// Numbers arrive as float64 from json-based backends.
	s := SubjectFromDoc(store.Document{ID: "doc-1", Data: map[string]any{
		"id":           "SUBJ1",
		"name":         "Algorithms",
		"day_week":     float64(1),
		"start_at":     "09:00",
		"end_at":       "10:15",
		"tag_uuid":     "ROOM-7",
		"professor_id": "P100",
		"valid_time":   float64(10),
		"department":   "CS",
		"major":        "Software",
	}})
	assert.Equal(t, 1, s.DayWeek)
	assert.Equal(t, 10, s.ValidTime)
	assert.Equal(t, "doc-1", s.DocID)

	assert.Equal(t, Summary{
		Department: "CS",
		Major:      "Software",
		StartAt:    "09:00",
		EndAt:      "10:15",
		Name:       "Algorithms",
	}, s.Summary())
}

func TestProfessorFromDoc(t *testing.T) {
	p := ProfessorFromDoc(store.Document{ID: "prof-uid-1", Data: map[string]any{
		"id":   "P100",
		"name": "Kim",
	}})
	assert.Equal(t, Professor{UID: "prof-uid-1", ID: "P100", Name: "Kim"}, p)
}
