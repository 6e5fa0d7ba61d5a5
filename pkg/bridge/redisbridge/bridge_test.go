package redisbridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/wakeflow/internal/testutil"
	"github.com/vnykmshr/wakeflow/pkg/channel"
	"github.com/vnykmshr/wakeflow/pkg/channel/broadcast"
	"github.com/vnykmshr/wakeflow/pkg/channel/mpsc"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
	"github.com/vnykmshr/wakeflow/pkg/metrics"
)

type published struct {
	channel string
	data    []byte
}

// fakeClient records publishes. Subscribe is only exercised against a live
// server.
type fakeClient struct {
	mu   sync.Mutex
	sent []published
	fail error
}

func (f *fakeClient) Publish(_ context.Context, ch string, message any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return redis.NewIntResult(0, f.fail)
	}
	f.sent = append(f.sent, published{channel: ch, data: message.([]byte)})
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) Subscribe(context.Context, ...string) *redis.PubSub {
	panic("not supported by fakeClient")
}

func (f *fakeClient) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.sent...)
}

func newTestBridge(t *testing.T, client Client) (*Bridge, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	cfg := DefaultConfig()
	cfg.Name = "test"
	cfg.Metrics = reg
	b, err := New(client, cfg)
	require.NoError(t, err)
	return b, reg
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.True(t, wferrors.IsValidationError(err))

	cfg := DefaultConfig()
	cfg.Channels = nil
	_, err = New(&fakeClient{}, cfg)
	assert.True(t, wferrors.IsValidationError(err))
}

func TestPublish(t *testing.T) {
	client := &fakeClient{}
	b, reg := newTestBridge(t, client)

	env, err := b.Publish(context.Background(), "orders", order{ID: 1, Item: "pen", Count: 2})
	require.NoError(t, err)

	sent := client.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "orders", sent[0].channel)

	got, err := ParseEnvelope("orders", sent[0].data)
	require.NoError(t, err)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, 1.0, promtest.ToFloat64(reg.BridgeMessages.WithLabelValues("test", "out")))
}

func TestPublish_Failure(t *testing.T) {
	down := errors.New("connection refused")
	b, reg := newTestBridge(t, &fakeClient{fail: down})

	_, err := b.Publish(context.Background(), "orders", 1)
	require.ErrorIs(t, err, down)

	var opErr *wferrors.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "redisbridge.Publish failed: connection refused (channel=orders)", err.Error())
	assert.Equal(t, 1.0, promtest.ToFloat64(reg.BridgeErrors.WithLabelValues("test", "out")))
}

func TestPublishEnvelope_EmptyChannel(t *testing.T) {
	b, _ := newTestBridge(t, &fakeClient{})
	err := b.PublishEnvelope(context.Background(), Envelope{})
	assert.True(t, wferrors.IsValidationError(err))
}

func TestForward(t *testing.T) {
	client := &fakeClient{}
	b, reg := newTestBridge(t, client)

	tx, rx := mpsc.New[Envelope]()
	for i := 0; i < 3; i++ {
		env, err := NewEnvelope("events", i)
		require.NoError(t, err)
		require.NoError(t, tx.Send(env))
	}
	tx2 := tx.Clone()
	tx.Close()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.Forward(ctx, rx) }()

	env, err := NewEnvelope("alerts", "late")
	require.NoError(t, err)
	require.NoError(t, tx2.Send(env))
	tx2.Close()

	require.NoError(t, <-done)

	sent := client.messages()
	require.Len(t, sent, 4)
	assert.Equal(t, "alerts", sent[3].channel)
	assert.Equal(t, 4.0, promtest.ToFloat64(reg.BridgeMessages.WithLabelValues("test", "out")))
}

func TestForward_ReportsFirstFailure(t *testing.T) {
	down := errors.New("down")
	b, _ := newTestBridge(t, &fakeClient{fail: down})

	tx, rx := mpsc.New[Envelope]()
	for _, ch := range []string{"a", "b"} {
		env, err := NewEnvelope(ch, nil)
		require.NoError(t, err)
		require.NoError(t, tx.Send(env))
	}
	tx.Close()

	err := b.Forward(context.Background(), rx)
	require.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "channel=a")
}

func TestForward_ProducerSeesReceiverDropped(t *testing.T) {
	b, _ := newTestBridge(t, &fakeClient{})

	tx, rx := mpsc.New[Envelope]()
	defer tx.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Forward(ctx, rx), context.Canceled)

	env, err := NewEnvelope("x", 1)
	require.NoError(t, err)
	assert.ErrorIs(t, tx.Send(env), wferrors.ErrReceiverDropped)
}

func TestDeliver(t *testing.T) {
	b, reg := newTestBridge(t, &fakeClient{})

	tx, rx := broadcast.New[Envelope]()
	defer tx.Close()
	defer rx.Close()
	other := rx.Clone()
	defer other.Close()

	env, err := NewEnvelope("orders", order{ID: 9})
	require.NoError(t, err)
	data, err := env.Marshal()
	require.NoError(t, err)

	require.NoError(t, b.deliver(&redis.Message{Channel: "orders", Payload: string(data)}, tx))
	require.NoError(t, b.deliver(&redis.Message{Channel: "orders", Payload: "garbage"}, tx))

	for _, r := range []*broadcast.Receiver[Envelope]{rx, other} {
		got, st := r.TryRecv()
		require.Equal(t, channel.Ready, st)
		assert.Equal(t, env.ID, got.ID)
		_, st = r.TryRecv()
		assert.Equal(t, channel.Pending, st)
	}

	assert.Equal(t, 1.0, promtest.ToFloat64(reg.BridgeMessages.WithLabelValues("test", "in")))
	assert.Equal(t, 1.0, promtest.ToFloat64(reg.BridgeErrors.WithLabelValues("test", "in")))
}

func TestDeliver_NoReceivers(t *testing.T) {
	b, _ := newTestBridge(t, &fakeClient{})

	tx, rx := broadcast.New[Envelope]()
	defer tx.Close()
	rx.Close()

	env, err := NewEnvelope("orders", 1)
	require.NoError(t, err)
	data, err := env.Marshal()
	require.NoError(t, err)

	assert.NoError(t, b.deliver(&redis.Message{Channel: "orders", Payload: string(data)}, tx))

	late := tx.Subscribe()
	defer late.Close()
	require.NoError(t, b.deliver(&redis.Message{Channel: "orders", Payload: string(data)}, tx))
	_, st := late.TryRecv()
	assert.Equal(t, channel.Ready, st)
}

func TestDeliver_ClosedSender(t *testing.T) {
	b, _ := newTestBridge(t, &fakeClient{})

	tx, rx := broadcast.New[Envelope]()
	defer rx.Close()
	tx.Close()

	env, err := NewEnvelope("orders", 1)
	require.NoError(t, err)
	data, err := env.Marshal()
	require.NoError(t, err)

	err = b.deliver(&redis.Message{Channel: "orders", Payload: string(data)}, tx)
	assert.ErrorIs(t, err, wferrors.ErrClosed)
}
