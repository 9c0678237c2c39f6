package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestInMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(2)
	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	want := Message{Type: "attendance.marked", Body: json.RawMessage(`{"actorId":"S1"}`)}
	require.NoError(t, q.Publish(ctx, want))
	assert.Equal(t, want, receive(t, ch))

	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Type: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "b"}), context.DeadlineExceeded)
}

func TestRedisQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q, err := New("redis", client, "")
	require.NoError(t, err)

	// malformed entries are skipped
	_, err = mr.Lpush("classlink:events", "{{{")
	require.NoError(t, err)

	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	want := Message{Type: "session.login", Body: json.RawMessage(`{"role":"teacher"}`)}
	require.NoError(t, q.Publish(ctx, want))

	got := receive(t, ch)
	assert.Equal(t, want.Type, got.Type)
	assert.JSONEq(t, string(want.Body), string(got.Body))
}

func TestNew(t *testing.T) {
	q, err := New("memory", nil, "")
	require.NoError(t, err)
	assert.IsType(t, &InMemory{}, q)

	_, err = New("redis", nil, "k")
	assert.Error(t, err)
	_, err = New("kafka", nil, "k")
	assert.Error(t, err)
}
