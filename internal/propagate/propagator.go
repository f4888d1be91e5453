package propagate

import (
	"context"
	"fmt"
	"log"

	"tagcheck/internal/roster"
	"tagcheck/internal/store"
)

// Change is one document-update event from the professor-side history tree,
// carrying before/after field snapshots the way the platform delivers them.
type Change struct {
	ProfessorUID string         `json:"professor_uid"`
	RecordID     string         `json:"record_id"`
	Before       map[string]any `json:"before"`
	After        map[string]any `json:"after"`
}

// Propagator mirrors professor-initiated result corrections into the paired
// student-side record and notifies the student's device.
type Propagator struct {
	store  store.Store
	sender Sender
}

// Sender matches notify.Sender; declared here so the propagator does not
// depend on the FCM wiring.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// New creates a propagator.
func New(st store.Store, sender Sender) *Propagator {
	return &Propagator{store: st, sender: sender}
}

// Apply processes one change event. A missing student is a logged no-op, and
// push failures never fail the data correction: returning an error here
// would make the platform redeliver the event forever with the same outcome.
// Redelivery of an already-applied event is safe because the update is a
// plain field overwrite.
func (p *Propagator) Apply(ctx context.Context, change Change) error {
	before := store.Document{Data: change.Before}
	after := store.Document{Data: change.After}
	studentID := before.Str("student_id")
	refID := before.Str("ref_id")
	if studentID == "" || refID == "" {
		log.Printf("history change %s has no student_id/ref_id, skipping", change.RecordID)
		return nil
	}

	docs, err := p.store.Query(ctx, store.Students, store.Query{}.Where("student_id", studentID))
	if err != nil {
		return fmt.Errorf("query students: %w", err)
	}
	if len(docs) == 0 {
		log.Printf("no student with id %s for history change %s, skipping", studentID, change.RecordID)
		return nil
	}
	student := roster.StudentFromDoc(docs[0])

	result := after.Str("result")
	if err := p.store.Update(ctx, store.StudentHistory(student.UID), refID, map[string]any{
		"result": result,
	}); err != nil {
		return fmt.Errorf("mirror result to student record %s: %w", refID, err)
	}
	log.Printf("attendance %s mirrored to student %s (result is now %s)", refID, student.StudentID, result)

	if student.Token == "" || p.sender == nil {
		return nil
	}
	title := before.Str("subject_name")
	body := fmt.Sprintf("Your attendance result changed to %q.", result)
	if err := p.sender.Send(ctx, student.Token, title, body); err != nil {
		log.Printf("push to student %s failed: %v", student.StudentID, err)
	}
	return nil
}
