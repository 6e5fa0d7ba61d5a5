package redisbridge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/wakeflow/pkg/channel/broadcast"
	"github.com/vnykmshr/wakeflow/pkg/channel/mpsc"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
	"github.com/vnykmshr/wakeflow/pkg/common/validation"
)

const (
	directionIn  = "in"
	directionOut = "out"
)

// Client is the part of redis.UniversalClient the bridge uses.
type Client interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Bridge moves envelopes between Redis Pub/Sub and wakeflow channels.
type Bridge struct {
	client Client
	config Config
	logger *slog.Logger
}

// New creates a bridge over client.
func New(client Client, cfg Config) (*Bridge, error) {
	if err := validation.ValidateNotNil("redisbridge", "client", client); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Bridge{
		client: client,
		config: cfg,
		logger: cfg.Logger.With("bridge", cfg.Name),
	}, nil
}

// Relay subscribes to the configured Redis channels and sends every
// envelope received to tx until ctx ends. Relay owns tx and closes it when
// it returns, which ends the stream for every receiver.
//
// Messages that are not valid envelopes are logged and skipped. Having no
// receivers is not an error; receivers may subscribe to tx later.
func (b *Bridge) Relay(ctx context.Context, tx *broadcast.Sender[Envelope]) error {
	defer tx.Close()

	ps := b.client.Subscribe(ctx, b.config.Channels...)
	defer ps.Close()

	// Wait for the subscription confirmation so no message published after
	// Relay is running is missed.
	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.countError(directionIn)
		return wferrors.NewOperationError("redisbridge", "Relay", err)
	}
	b.logger.Info("relaying redis channels", "channels", b.config.Channels)

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return wferrors.NewOperationError("redisbridge", "Relay", errors.New("subscription closed"))
			}
			if err := b.deliver(msg, tx); err != nil {
				return err
			}
		}
	}
}

// deliver forwards one Redis message. It returns an error only when tx can
// no longer be used.
func (b *Bridge) deliver(msg *redis.Message, tx *broadcast.Sender[Envelope]) error {
	env, err := ParseEnvelope(msg.Channel, []byte(msg.Payload))
	if err != nil {
		b.countError(directionIn)
		b.logger.Warn("skipping message", "channel", msg.Channel, "error", err)
		return nil
	}

	err = tx.Send(env)
	switch {
	case err == nil:
		b.countMessage(directionIn)
	case wferrors.IsDisconnected(err):
		b.logger.Debug("no receivers for message", "channel", env.Channel, "id", env.ID)
	default:
		return wferrors.NewOperationError("redisbridge", "Relay", err)
	}
	return nil
}

// Publish wraps payload in an envelope and publishes it to channel.
func (b *Bridge) Publish(ctx context.Context, channel string, payload any) (Envelope, error) {
	env, err := NewEnvelope(channel, payload)
	if err != nil {
		return Envelope{}, wferrors.NewOperationError("redisbridge", "Publish", err).WithContext("channel=" + channel)
	}
	return env, b.PublishEnvelope(ctx, env)
}

// PublishEnvelope publishes env to env.Channel.
func (b *Bridge) PublishEnvelope(ctx context.Context, env Envelope) error {
	if err := validation.ValidateNotEmpty("redisbridge", "channel", env.Channel); err != nil {
		return err
	}

	data, err := env.Marshal()
	if err != nil {
		b.countError(directionOut)
		return wferrors.NewOperationError("redisbridge", "Publish", err).WithContext("channel=" + env.Channel)
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.PublishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, env.Channel, data).Err(); err != nil {
		b.countError(directionOut)
		return wferrors.NewOperationError("redisbridge", "Publish", err).WithContext("channel=" + env.Channel)
	}
	b.countMessage(directionOut)
	return nil
}

// Forward publishes every envelope read from rx until the stream ends or
// ctx ends. Forward owns rx and closes it when it returns, so producers
// see errors.ErrReceiverDropped afterwards. Failed publishes are logged and
// counted; Forward returns the first of them after the stream ends.
func (b *Bridge) Forward(ctx context.Context, rx *mpsc.Receiver[Envelope]) error {
	defer rx.Close()

	var first error
	for env := range rx.All(ctx) {
		if err := b.PublishEnvelope(ctx, env); err != nil {
			b.logger.Error("forward failed", "channel", env.Channel, "id", env.ID, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return first
}

func (b *Bridge) countMessage(direction string) {
	if m := b.config.Metrics; m != nil {
		m.BridgeMessages.WithLabelValues(b.config.Name, direction).Inc()
	}
}

func (b *Bridge) countError(direction string) {
	if m := b.config.Metrics; m != nil {
		m.BridgeErrors.WithLabelValues(b.config.Name, direction).Inc()
	}
}
