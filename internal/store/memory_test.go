package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueryFilters(t *testing.T) {
	m := NewMemory()
	m.Seed(Subjects, "a", map[string]any{"tag_uuid": "ROOM-7", "day_week": 1, "name": "Algorithms"})
	m.Seed(Subjects, "b", map[string]any{"tag_uuid": "ROOM-7", "day_week": 2, "name": "Databases"})
	m.Seed(Subjects, "c", map[string]any{"tag_uuid": "ROOM-9", "day_week": 1, "name": "Networks"})

	docs, err := m.Query(context.Background(), Subjects, Query{}.
		Where("tag_uuid", "ROOM-7").
		Where("day_week", 1))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Algorithms", docs[0].Str("name"))
}

func TestMemoryQueryNumericEquality(t *testing.T) {
	m := NewMemory()
	// json decoding yields float64 for numbers; queries use int.
	m.Seed(Subjects, "a", map[string]any{"day_week": float64(1)})

	docs, err := m.Query(context.Background(), Subjects, Query{}.Where("day_week", 1))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMemoryOrderAndLimit(t *testing.T) {
	m := NewMemory()
	col := StudentHistory("stu-1")
	m.Seed(col, "r1", map[string]any{"timestamp": 100.5})
	m.Seed(col, "r2", map[string]any{"timestamp": 300.25})
	m.Seed(col, "r3", map[string]any{"timestamp": 200.0})

	docs, err := m.Query(context.Background(), col, Query{OrderBy: "timestamp", Desc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "r2", docs[0].ID)
}

func TestMemoryRangeFilter(t *testing.T) {
	m := NewMemory()
	col := StudentHistory("stu-1")
	m.Seed(col, "r1", map[string]any{"timestamp": 100.0})
	m.Seed(col, "r2", map[string]any{"timestamp": 300.0})

	docs, err := m.Query(context.Background(), col, Query{
		Filters: []Filter{{Field: "timestamp", Op: ">=", Value: 200.0}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "r2", docs[0].ID)
}

func TestMemoryAddUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Add(ctx, Students, map[string]any{"name": "Lee", "result": "ok"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, m.Update(ctx, Students, id, map[string]any{"result": "late"}))
	doc, ok := m.Get(Students, id)
	require.True(t, ok)
	assert.Equal(t, "late", doc.Str("result"))
	assert.Equal(t, "Lee", doc.Str("name"))

	assert.Error(t, m.Update(ctx, Students, "nope", map[string]any{"result": "late"}))
}

func TestDocumentGettersTolerateMissingFields(t *testing.T) {
	doc := Document{ID: "x", Data: map[string]any{"n": 3, "f": 1.5}}
	assert.Equal(t, "", doc.Str("token"))
	assert.Equal(t, 0, doc.Int("missing"))
	assert.Equal(t, 0.0, doc.Float("missing"))
	assert.Equal(t, 3, doc.Int("n"))
	assert.Equal(t, 1.5, doc.Float("f"))
	assert.Equal(t, 3.0, doc.Float("n"))
}
