package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is a map-backed Store for dev mode and tests.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cols: make(map[string]map[string]map[string]any)}
}

// Seed inserts a document with a fixed id, for test fixtures.
func (m *Memory) Seed(collection, id string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cols[collection] == nil {
		m.cols[collection] = make(map[string]map[string]any)
	}
	m.cols[collection][id] = clone(data)
}

// Query filters a collection and applies ordering and limit. Ordering falls
// back to document id when OrderBy is empty so results are deterministic; the
// backends that matter in production make no such promise.
func (m *Memory) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Document
	for id, data := range m.cols[collection] {
		if matches(data, q.Filters) {
			out = append(out, Document{ID: id, Data: clone(data)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.OrderBy != "" {
			a, b := compareKey(out[i], q.OrderBy), compareKey(out[j], q.OrderBy)
			if a != b {
				if q.Desc {
					return a > b
				}
				return a < b
			}
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Add inserts a document under a fresh uuid id.
func (m *Memory) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cols[collection] == nil {
		m.cols[collection] = make(map[string]map[string]any)
	}
	id := uuid.NewString()
	m.cols[collection][id] = clone(data)
	return id, nil
}

// Update merges fields into an existing document.
func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.cols[collection][id]
	if !ok {
		return errors.New("store: document " + collection + "/" + id + " not found")
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Get returns one document by id, for test assertions.
func (m *Memory) Get(collection, id string) (Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.cols[collection][id]
	if !ok {
		return Document{}, false
	}
	return Document{ID: id, Data: clone(data)}, true
}

// Count returns the number of documents in a collection.
func (m *Memory) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cols[collection])
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case "==":
			if key(v) != key(f.Value) {
				return false
			}
		case ">=":
			if key(v) < key(f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// key normalizes a value for comparison. Numbers are zero-padded so that
// lexical order matches numeric order; everything else compares as text.
func key(v any) string {
	switch n := v.(type) {
	case int:
		return fmt.Sprintf("%020.6f", float64(n))
	case int64:
		return fmt.Sprintf("%020.6f", float64(n))
	case float64:
		return fmt.Sprintf("%020.6f", n)
	}
	return fmt.Sprintf("%v", v)
}

func compareKey(d Document, field string) string {
	v, ok := d.Data[field]
	if !ok {
		return ""
	}
	return key(v)
}

func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
