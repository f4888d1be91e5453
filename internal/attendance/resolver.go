package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tagcheck/internal/roster"
	"tagcheck/internal/store"
)

// Zone is the capture time zone for every attendance instant. The campus
// runs on UTC+9 and subjects store wall-clock times in that zone.
var Zone = time.FixedZone("UTC+9", 9*60*60)

// Resolver finds the class session active in a room at a given instant and
// the professor who owns it. Read-only.
type Resolver struct {
	store store.Store
}

// NewResolver creates a resolver over the injected store handle.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve returns the one subject meeting in the tagged room whose
// attendance window contains at, plus its professor.
//
// A subject is eligible iff start_at <= at <= start_at + valid_time minutes,
// both bounds inclusive, compared as wall clock in Zone. When several
// subjects qualify the earliest start_at wins (doc id breaks ties) so the
// pick never depends on store ordering.
func (r *Resolver) Resolve(ctx context.Context, tagUUID string, at time.Time) (roster.Subject, roster.Professor, error) {
	at = at.In(Zone)
	docs, err := r.store.Query(ctx, store.Subjects, store.Query{}.
		Where("tag_uuid", tagUUID).
		Where("day_week", weekday(at)))
	if err != nil {
		return roster.Subject{}, roster.Professor{}, fmt.Errorf("query subjects: %w", err)
	}

	nowSec := at.Hour()*3600 + at.Minute()*60 + at.Second()
	var eligible []roster.Subject
	for _, doc := range docs {
		subj := roster.SubjectFromDoc(doc)
		startSec, err := wallClockSeconds(subj.StartAt)
		if err != nil {
			continue // malformed reference data, skip rather than fail the room
		}
		if nowSec >= startSec && nowSec <= startSec+subj.ValidTime*60 {
			eligible = append(eligible, subj)
		}
	}
	if len(eligible) == 0 {
		return roster.Subject{}, roster.Professor{}, ErrSessionNotFound
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].StartAt != eligible[j].StartAt {
			return eligible[i].StartAt < eligible[j].StartAt
		}
		return eligible[i].DocID < eligible[j].DocID
	})
	subject := eligible[0]

	professor, err := r.professor(ctx, subject.ProfessorID)
	if err != nil {
		return roster.Subject{}, roster.Professor{}, err
	}
	return subject, professor, nil
}

func (r *Resolver) professor(ctx context.Context, professorID string) (roster.Professor, error) {
	docs, err := r.store.Query(ctx, store.Professors, store.Query{}.Where("id", professorID))
	if err != nil {
		return roster.Professor{}, fmt.Errorf("query professors: %w", err)
	}
	if len(docs) == 0 {
		return roster.Professor{}, ErrProfessorNotFound
	}
	return roster.ProfessorFromDoc(docs[0]), nil
}

// weekday maps time.Weekday (Sunday=0) to the stored convention (Monday=0).
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// wallClockSeconds parses "HH:MM" or "HH:MM:SS" into seconds since midnight.
func wallClockSeconds(s string) (int, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return 0, fmt.Errorf("bad wall-clock time %q: %w", s, err)
		}
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
}
