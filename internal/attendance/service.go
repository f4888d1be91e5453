package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tagcheck/internal/roster"
	"tagcheck/internal/store"
)

// Receipt is returned to the caller after a successful check-in.
type Receipt struct {
	RecordID  string
	Timestamp time.Time
}

// Recorder validates a check-in request, deduplicates it, and persists the
// dual-sided history record.
type Recorder struct {
	store    store.Store
	resolver *Resolver
	now      func() time.Time
}

// NewRecorder creates a recorder. now may be nil to use the wall clock; tests
// inject a fixed clock.
func NewRecorder(st store.Store, resolver *Resolver, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{store: st, resolver: resolver, now: now}
}

// CheckIn records attendance for the student owning deviceUUID in the room
// tagged tagUUID. callerUID is the platform-authenticated student uid that
// partitions the student-side history collection.
//
// The student-side record is written first and its store id seeds ref_id on
// the professor-side record. The two writes are not transactional; a crash
// in between leaves an orphaned student-side record, accepted per the
// original design. No retry happens on an ambiguous write outcome.
func (r *Recorder) CheckIn(ctx context.Context, deviceUUID, tagUUID, callerUID string) (Receipt, error) {
	student, err := r.student(ctx, deviceUUID)
	if err != nil {
		return Receipt{}, err
	}

	at := r.now().In(Zone)
	subject, professor, err := r.resolver.Resolve(ctx, tagUUID, at)
	if err != nil {
		return Receipt{}, err
	}

	if err := r.checkDuplicate(ctx, callerUID, at); err != nil {
		return Receipt{}, err
	}

	att := Attendance{
		Student:   student,
		Subject:   subject,
		Professor: professor,
		Timestamp: at,
		Result:    ResultOK,
	}
	recordID, err := r.store.Add(ctx, store.StudentHistory(callerUID), att.StudentDoc())
	if err != nil {
		return Receipt{}, fmt.Errorf("write student history: %w", err)
	}
	if _, err := r.store.Add(ctx, store.ProfessorHistory(professor.UID), att.ProfessorDoc(recordID)); err != nil {
		return Receipt{}, fmt.Errorf("write professor history: %w", err)
	}
	return Receipt{RecordID: recordID, Timestamp: at}, nil
}

// AvailableSubjects lists the subjects meeting in the tagged room on the
// given weekday (0=Monday), regardless of the current time.
func (r *Recorder) AvailableSubjects(ctx context.Context, tagUUID string, dayWeek int) ([]roster.Summary, error) {
	docs, err := r.store.Query(ctx, store.Subjects, store.Query{}.
		Where("tag_uuid", tagUUID).
		Where("day_week", dayWeek))
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	summaries := make([]roster.Summary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, roster.SubjectFromDoc(doc).Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].StartAt < summaries[j].StartAt })
	return summaries, nil
}

// Student resolves the student owning a device. Exported for the device
// registration flow, which needs the student uid to mint a token.
func (r *Recorder) Student(ctx context.Context, deviceUUID string) (roster.Student, error) {
	return r.student(ctx, deviceUUID)
}

func (r *Recorder) student(ctx context.Context, deviceUUID string) (roster.Student, error) {
	docs, err := r.store.Query(ctx, store.Students, store.Query{}.Where("device_uuid", deviceUUID))
	if err != nil {
		return roster.Student{}, fmt.Errorf("query students: %w", err)
	}
	if len(docs) == 0 {
		return roster.Student{}, ErrStudentNotRegistered
	}
	// device_uuid should be unique; if reference data violates that, pick
	// the lowest store id so the choice is at least deterministic.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return roster.StudentFromDoc(docs[0]), nil
}

// checkDuplicate rejects a second check-in within the same calendar date and
// wall-clock hour. The hour bucket (rather than the session) is existing
// behavior carried over from the original system.
func (r *Recorder) checkDuplicate(ctx context.Context, callerUID string, at time.Time) error {
	docs, err := r.store.Query(ctx, store.StudentHistory(callerUID), store.Query{
		OrderBy: timestampField,
		Desc:    true,
		Limit:   1,
	})
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	prev := fromEpochSeconds(docs[0].Float(timestampField))
	sameDate := prev.Year() == at.Year() && prev.YearDay() == at.YearDay()
	if sameDate && prev.Hour() == at.Hour() {
		return ErrDuplicateAttendance
	}
	return nil
}
