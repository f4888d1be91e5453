package store

import (
	"context"
)

// Collection names used by the service. History collections are per-user
// subtrees addressed via the path helpers below.
const (
	Students   = "students"
	Subjects   = "subjects"
	Professors = "professors"
)

// StudentHistory returns the per-student attendance history collection path.
func StudentHistory(uid string) string {
	return "attendance_history/student/" + uid
}

// ProfessorHistory returns the per-professor attendance history collection path.
func ProfessorHistory(uid string) string {
	return "attendance_history/professor/" + uid
}

// Document is one record read from a collection. Data holds the raw fields;
// the typed getters tolerate missing or mistyped fields by returning zero
// values, so mapping code never panics on sparse documents.
type Document struct {
	ID   string
	Data map[string]any
}

// Str returns a string field, or "" when absent.
func (d Document) Str(field string) string {
	if v, ok := d.Data[field].(string); ok {
		return v
	}
	return ""
}

// Int returns an integer field, accepting the numeric encodings the
// backends produce (int, int64, float64).
func (d Document) Int(field string) int {
	switch v := d.Data[field].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Float returns a float field, or 0 when absent.
func (d Document) Float(field string) float64 {
	switch v := d.Data[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Filter is a single field predicate. Op is "==" or ">=".
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query describes the lookup capability the service needs: equality/range
// filters, optional single-field ordering, and a result limit.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where appends an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Op: "==", Value: value})
	return q
}

// Store is the document-store capability injected into every component.
// Implementations: Firestore (production), Postgres (self-hosted), Memory
// (dev and tests).
type Store interface {
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Ping(ctx context.Context) error
}
