package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := newMemoryQueue(16)
	defer func() { _ = q.Close() }()

	var (
		mu       sync.Mutex
		received []string
	)
	done := make(chan struct{})
	require.NoError(t, q.Subscribe("udlc.jobs", func(data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(data))
		if len(received) == 3 {
			close(done)
		}
		return nil
	}))

	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, q.Publish(context.Background(), "udlc.jobs", []byte(m)))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for messages")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, received)
}

func TestMemoryQueue_PublishCopiesData(t *testing.T) {
	q := newMemoryQueue(4)
	defer func() { _ = q.Close() }()

	data := []byte("job")
	require.NoError(t, q.Publish(context.Background(), "s", data))
	data[0] = 'x'

	got := make(chan []byte, 1)
	require.NoError(t, q.Subscribe("s", func(b []byte) error {
		got <- b
		return nil
	}))
	select {
	case b := <-got:
		assert.Equal(t, "job", string(b))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestMemoryQueue_BufferFull(t *testing.T) {
	q := newMemoryQueue(1)
	defer func() { _ = q.Close() }()

	require.NoError(t, q.Publish(context.Background(), "s", []byte("1")))
	assert.Error(t, q.Publish(context.Background(), "s", []byte("2")))
	assert.Equal(t, 1, q.Pending("s"))
}

func TestMemoryQueue_SubscriptionErrors(t *testing.T) {
	q := newMemoryQueue(1)

	handler := func([]byte) error { return errors.New("ignored") }
	require.NoError(t, q.Subscribe("s", handler))
	assert.Error(t, q.Subscribe("s", handler))

	require.NoError(t, q.Unsubscribe("s"))
	assert.Error(t, q.Unsubscribe("s"))

	require.NoError(t, q.Close())
	assert.Error(t, q.Publish(context.Background(), "s", []byte("late")))
	assert.NoError(t, q.Close())
}

func TestMemoryQueue_HandlerErrorKeepsConsuming(t *testing.T) {
	q := newMemoryQueue(4)
	defer func() { _ = q.Close() }()

	calls := make(chan struct{}, 2)
	require.NoError(t, q.Subscribe("s", func([]byte) error {
		calls <- struct{}{}
		return errors.New("boom")
	}))
	require.NoError(t, q.Publish(context.Background(), "s", []byte("1")))
	require.NoError(t, q.Publish(context.Background(), "s", []byte("2")))

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("handler called %d times", i)
		}
	}
}
