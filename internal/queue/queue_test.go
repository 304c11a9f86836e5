package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (h *recordingHandler) HandleImageJob(_ context.Context, projectID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, projectID)
	if h.fail {
		return errors.New("generation failed")
	}
	return nil
}

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestProducerConsumer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	handler := &recordingHandler{}

	consumer := NewConsumer(client, "projects:generate", "generators", "worker-1", zerolog.Nop(), handler)
	consumer.block = 10 * time.Millisecond
	require.NoError(t, consumer.EnsureGroup(ctx))

	producer := NewProducer(client, "projects:generate")
	require.NoError(t, producer.EnqueueImageJob(ctx, "p-1"))
	require.NoError(t, producer.EnqueueImageJob(ctx, "p-2"))

	n, err := consumer.ReadOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"p-1", "p-2"}, handler.ids)

	pending, err := client.XPending(ctx, "projects:generate", "generators").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestConsumer_AcksFailedJobs(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	handler := &recordingHandler{fail: true}

	consumer := NewConsumer(client, "s", "g", "c", zerolog.Nop(), handler)
	consumer.block = 10 * time.Millisecond
	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, NewProducer(client, "s").EnqueueImageJob(ctx, "p-9"))

	n, err := consumer.ReadOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := client.XPending(ctx, "s", "g").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestConsumer_EnsureGroupIdempotent(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	consumer := NewConsumer(client, "s", "g", "c", zerolog.Nop(), &recordingHandler{})

	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, consumer.EnsureGroup(ctx))
}
