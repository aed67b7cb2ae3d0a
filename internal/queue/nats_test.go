package queue

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestNATS starts an embedded JetStream server
func setupTestNATS(t *testing.T) string {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

func TestNATSQueue_PublishSubscribe(t *testing.T) {
	url := setupTestNATS(t)

	q, err := newNATSQueue(NATSConfig{URL: url})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	got := make(chan string, 2)
	require.NoError(t, q.Subscribe("udlc.jobs", func(data []byte) error {
		got <- string(data)
		return nil
	}))

	require.NoError(t, q.Publish(context.Background(), "udlc.jobs", []byte(`{"id":"1"}`)))
	require.NoError(t, q.Publish(context.Background(), "udlc.jobs", []byte(`{"id":"2"}`)))

	for _, want := range []string{`{"id":"1"}`, `{"id":"2"}`} {
		select {
		case msg := <-got:
			assert.Equal(t, want, msg)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestNATSQueue_PublishBeforeSubscribe(t *testing.T) {
	url := setupTestNATS(t)

	conn, err := nats.Connect(url)
	require.NoError(t, err)
	q, err := newNATSQueueWithConn(conn, time.Minute)
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	require.NoError(t, q.Publish(context.Background(), "udlc.jobs", []byte("early")))

	got := make(chan string, 1)
	require.NoError(t, q.Subscribe("udlc.jobs", func(data []byte) error {
		got <- string(data)
		return nil
	}))

	select {
	case msg := <-got:
		assert.Equal(t, "early", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("stored message was not delivered")
	}
}

func TestNATSQueue_SubscriptionErrors(t *testing.T) {
	url := setupTestNATS(t)

	q, err := newNATSQueue(NATSConfig{URL: url})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	handler := func([]byte) error { return nil }
	require.NoError(t, q.Subscribe("udlc.jobs", handler))
	assert.Error(t, q.Subscribe("udlc.jobs", handler))
	require.NoError(t, q.Unsubscribe("udlc.jobs"))
	assert.Error(t, q.Unsubscribe("udlc.jobs"))
}
