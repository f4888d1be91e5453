package roster

import "tagcheck/internal/store"

// Subject is a scheduled class meeting: a weekly slot at a fixed room,
// weekday, and time window. Read-only reference data.
type Subject struct {
	DocID       string
	ID          string
	Name        string
	DayWeek     int    // 0=Monday .. 6=Sunday
	StartAt     string // wall clock "HH:MM" or "HH:MM:SS"
	EndAt       string
	TagUUID     string
	ProfessorID string
	ValidTime   int // minutes after StartAt during which check-in is accepted
	Department  string
	Major       string
}

// Summary is the client-facing projection returned by the
// available-subjects listing.
type Summary struct {
	Department string `json:"department"`
	Major      string `json:"major"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at"`
	Name       string `json:"name"`
}

// SubjectFromDoc maps a raw document to a Subject.
func SubjectFromDoc(doc store.Document) Subject {
	return Subject{
		DocID:       doc.ID,
		ID:          doc.Str("id"),
		Name:        doc.Str("name"),
		DayWeek:     doc.Int("day_week"),
		StartAt:     doc.Str("start_at"),
		EndAt:       doc.Str("end_at"),
		TagUUID:     doc.Str("tag_uuid"),
		ProfessorID: doc.Str("professor_id"),
		ValidTime:   doc.Int("valid_time"),
		Department:  doc.Str("department"),
		Major:       doc.Str("major"),
	}
}

// Summary projects the fields clients see.
func (s Subject) Summary() Summary {
	return Summary{
		Department: s.Department,
		Major:      s.Major,
		StartAt:    s.StartAt,
		EndAt:      s.EndAt,
		Name:       s.Name,
	}
}
