package channel

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
)

// Kind names a channel shape in logs and metric labels.
type Kind string

const (
	KindOneshot   Kind = "oneshot"
	KindMPSC      Kind = "mpsc"
	KindBroadcast Kind = "broadcast"
)

// Observer reports channel activity to the configured logger and metrics.
// Its methods are safe for concurrent use and are called after the channel
// lock has been released.
type Observer struct {
	kind   Kind
	name   string
	logger *slog.Logger

	// nil when metrics are disabled
	sends     prometheus.Counter
	receives  prometheus.Counter
	wakeups   prometheus.Counter
	trimmed   prometheus.Counter
	buffered  prometheus.Gauge
	senders   prometheus.Gauge
	receivers prometheus.Gauge
	rejected  *prometheus.CounterVec
}

// NewObserver creates an Observer for a channel of the given kind.
func NewObserver(kind Kind, cfg Config) *Observer {
	cfg = cfg.withDefaults()
	o := &Observer{
		kind:   kind,
		name:   cfg.Name,
		logger: cfg.Logger.With(slog.String("kind", string(kind)), slog.String("channel", cfg.Name)),
	}

	if m := cfg.Metrics; m != nil {
		k := string(kind)
		o.sends = m.ChannelSends.WithLabelValues(k, cfg.Name)
		o.receives = m.ChannelReceives.WithLabelValues(k, cfg.Name)
		o.wakeups = m.ChannelWakeups.WithLabelValues(k, cfg.Name)
		o.trimmed = m.ChannelTrimmed.WithLabelValues(k, cfg.Name)
		o.buffered = m.ChannelBuffered.WithLabelValues(k, cfg.Name)
		o.senders = m.ChannelSenders.WithLabelValues(k, cfg.Name)
		o.receivers = m.ChannelReceivers.WithLabelValues(k, cfg.Name)
		o.rejected = m.ChannelRejected.MustCurryWith(prometheus.Labels{"kind": k, "channel": cfg.Name})
	}
	return o
}

// Name returns the configured channel name.
func (o *Observer) Name() string {
	return o.name
}

// Sent records an accepted send.
func (o *Observer) Sent() {
	if o.sends != nil {
		o.sends.Inc()
	}
}

// Rejected records a send that was handed back to the caller.
func (o *Observer) Rejected(cause error) {
	reason := RejectReason(cause)
	if o.rejected != nil {
		o.rejected.WithLabelValues(reason).Inc()
	}
	o.logger.Debug("send rejected", slog.String("reason", reason))
}

// Received records a delivered value.
func (o *Observer) Received() {
	if o.receives != nil {
		o.receives.Inc()
	}
}

// Woke records n invoked wakers.
func (o *Observer) Woke(n int) {
	if o.wakeups != nil && n > 0 {
		o.wakeups.Add(float64(n))
	}
}

// Trimmed records n values released from a shared buffer.
func (o *Observer) Trimmed(n int) {
	if o.trimmed != nil && n > 0 {
		o.trimmed.Add(float64(n))
	}
}

// Gauges publishes a snapshot of buffer and handle counts.
func (o *Observer) Gauges(buffered, senders, receivers int) {
	if o.buffered == nil {
		return
	}
	o.buffered.Set(float64(buffered))
	o.senders.Set(float64(senders))
	o.receivers.Set(float64(receivers))
}

// Debug logs a lifecycle event.
func (o *Observer) Debug(msg string, args ...any) {
	o.logger.Debug(msg, args...)
}

// RejectReason maps a send failure cause to a metric label.
func RejectReason(cause error) string {
	switch {
	case errors.Is(cause, wferrors.ErrReceiverDropped):
		return "receiver_dropped"
	case errors.Is(cause, wferrors.ErrClosed):
		return "closed"
	default:
		return "other"
	}
}
