package attendance

import (
	"time"

	"tagcheck/internal/roster"
)

// ResultOK is the result marker written on a successful check-in. Older
// records may carry "normal" instead; it is read as a synonym but never
// written.
const (
	ResultOK           = "ok"
	resultNormalLegacy = "normal"
	timestampField     = "timestamp"
)

// Attendance is the request-scoped aggregate built for one check-in. It is
// never stored as-is; it projects into the two history records below.
type Attendance struct {
	Student   roster.Student
	Subject   roster.Subject
	Professor roster.Professor
	Timestamp time.Time
	Result    string
}

// StudentDoc is the record persisted under the student's history path.
func (a Attendance) StudentDoc() map[string]any {
	return map[string]any{
		"student_id":   a.Student.StudentID,
		"student_name": a.Student.Name,
		"subject_name": a.Subject.Name,
		"result":       a.Result,
		timestampField: epochSeconds(a.Timestamp),
	}
}

// ProfessorDoc is the record persisted under the professor's history path.
// refID is the store id of the already-written student-side copy and is the
// join key correction propagation follows back.
func (a Attendance) ProfessorDoc(refID string) map[string]any {
	return map[string]any{
		"ref_id":         refID,
		"student_id":     a.Student.StudentID,
		"student_name":   a.Student.Name,
		"subject_name":   a.Subject.Name,
		"professor_name": a.Professor.Name,
		"result":         a.Result,
		timestampField:   epochSeconds(a.Timestamp),
	}
}

// epochSeconds renders a capture instant the way history records store it.
func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// fromEpochSeconds restores a capture instant in the capture zone.
func fromEpochSeconds(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second))).In(Zone)
}
