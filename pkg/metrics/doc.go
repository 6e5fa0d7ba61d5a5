// Package metrics provides Prometheus instrumentation for wakeflow components.
//
// A Registry groups the collectors used by the channels, the worker pool,
// the scheduler and the Redis bridge. Components accept a *Registry in their
// configuration; a nil registry disables instrumentation.
//
// # Quick Start
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//
//	tx, rx := broadcast.NewWithConfig[string](channel.Config{
//		Name:    "events",
//		Metrics: reg,
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Namespace and Labels
//
//	reg := metrics.NewRegistryWithConfig(metrics.Config{
//		Registry:  prometheus.NewRegistry(),
//		Namespace: "myapp",
//		Labels:    prometheus.Labels{"instance": "a"},
//	})
//
// # Channel Metrics
//
//	wakeflow_channel_sends_total{kind,channel}
//	wakeflow_channel_rejected_total{kind,channel,reason}
//	wakeflow_channel_receives_total{kind,channel}
//	wakeflow_channel_wakeups_total{kind,channel}
//	wakeflow_channel_trimmed_total{kind,channel}
//	wakeflow_channel_buffered{kind,channel}
//	wakeflow_channel_senders{kind,channel}
//	wakeflow_channel_receivers{kind,channel}
//
// DefaultRegistry is registered against prometheus.DefaultRegisterer at init;
// do not call NewRegistry(prometheus.DefaultRegisterer) a second time.
package metrics
