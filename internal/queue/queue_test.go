package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg := Message{Type: TypeHistoryUpdated, Body: []byte(`{"record_id":"mirror-1"}`)}
	require.NoError(t, q.Publish(ctx, msg))

	out, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case got := <-out:
		assert.Equal(t, msg, got)
	case <-ctx.Done():
		t.Fatal("no message before timeout")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	// Bodies may contain the separator; only the first one splits.
	msg := Message{Type: TypeHistoryUpdated, Body: []byte(`a|b|c`)}
	got, err := deserialize(serialize(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}
