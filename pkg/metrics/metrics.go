package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for wakeflow components.
type Registry struct {
	// Channel Metrics
	ChannelSends     *prometheus.CounterVec
	ChannelRejected  *prometheus.CounterVec
	ChannelReceives  *prometheus.CounterVec
	ChannelWakeups   *prometheus.CounterVec
	ChannelTrimmed   *prometheus.CounterVec
	ChannelBuffered  *prometheus.GaugeVec
	ChannelSenders   *prometheus.GaugeVec
	ChannelReceivers *prometheus.GaugeVec

	// Task Scheduling Metrics
	TasksSubmitted        *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolActive      *prometheus.GaugeVec
	SchedulerFires        *prometheus.CounterVec
	SchedulerTasks        *prometheus.GaugeVec

	// Bridge Metrics
	BridgeMessages *prometheus.CounterVec
	BridgeErrors   *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by wakeflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	cfg := DefaultConfig()
	cfg.Registry = reg
	return NewRegistryWithConfig(cfg)
}

// NewRegistryWithConfig creates a metrics registry from cfg. A nil
// cfg.Registry falls back to prometheus.DefaultRegisterer.
func NewRegistryWithConfig(cfg Config) *Registry {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(cfg.Labels) > 0 {
		reg = prometheus.WrapRegistererWith(cfg.Labels, reg)
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	factory := promauto.With(reg)

	channelLabels := []string{"kind", "channel"}

	return &Registry{
		// Channel Metrics
		ChannelSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "sends_total",
				Help:      "Total number of values accepted by channel senders",
			},
			channelLabels,
		),

		ChannelRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "rejected_total",
				Help:      "Total number of sends rejected and handed back to the caller",
			},
			[]string{"kind", "channel", "reason"},
		),

		ChannelReceives: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "receives_total",
				Help:      "Total number of values delivered to receivers",
			},
			channelLabels,
		),

		ChannelWakeups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "wakeups_total",
				Help:      "Total number of wakers invoked",
			},
			channelLabels,
		),

		ChannelTrimmed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "trimmed_total",
				Help:      "Total number of buffered values released after every receiver consumed them",
			},
			channelLabels,
		),

		ChannelBuffered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "buffered",
				Help:      "Number of values currently retained in the channel buffer",
			},
			channelLabels,
		),

		ChannelSenders: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "senders",
				Help:      "Number of live sender handles",
			},
			channelLabels,
		),

		ChannelReceivers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "channel",
				Name:      "receivers",
				Help:      "Number of live receiver handles",
			},
			channelLabels,
		),

		// Task Scheduling Metrics
		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks submitted",
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that failed or panicked",
			},
			[]string{"pool_name"},
		),

		TaskExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of active workers",
			},
			[]string{"pool_name"},
		),

		SchedulerFires: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "scheduler",
				Name:      "fires_total",
				Help:      "Total number of schedule fire events published",
			},
			[]string{"scheduler_name", "task_id"},
		),

		SchedulerTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "scheduler",
				Name:      "tasks",
				Help:      "Number of registered schedules",
			},
			[]string{"scheduler_name"},
		),

		// Bridge Metrics
		BridgeMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "bridge",
				Name:      "messages_total",
				Help:      "Total number of messages relayed by a bridge",
			},
			[]string{"bridge", "direction"},
		),

		BridgeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "bridge",
				Name:      "errors_total",
				Help:      "Total number of bridge relay errors",
			},
			[]string{"bridge", "direction"},
		),
	}
}
