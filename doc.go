/*
Package wakeflow provides unbounded, waker-driven channels and the task
plumbing built on them.

Channels (pkg/channel):
  - oneshot: a single value from one sender to one receiver
  - mpsc: many senders, one receiver, FIFO
  - broadcast: many senders, many receivers, each receiver sees every value

Every channel is one mutex-guarded state shared by its handles. Send never
blocks. Receiving is built on Poll, which either returns a value or
registers a waker to be called when the next poll could succeed; Recv and
All wrap Poll for ordinary blocking use with a context.

Closing a handle is how it is dropped. When every receiver is gone, sends
fail and return the value inside an errors.SendError. When every sender is
gone, receivers drain what is left and then see the end of the stream.

Built on the channels:
  - scheduling/workerpool: results stream through mpsc, single tasks can be
    awaited through oneshot
  - scheduling/scheduler: interval and cron fires broadcast to subscribers
  - bridge/redisbridge: Redis Pub/Sub relayed into broadcast, mpsc streams
    published to Redis

Example usage:

	import (
		"github.com/vnykmshr/wakeflow/pkg/channel/broadcast"
	)

	tx, rx := broadcast.New[Event]()
	audit := rx.Clone()

	go consume(rx)
	go consume(audit)

	tx.Send(Event{Kind: "created"})
	tx.Close() // both consumers drain and stop

Instrumentation is optional: pass a *slog.Logger and a *metrics.Registry in
channel.Config to get Debug lifecycle logs and Prometheus counters.
*/
package wakeflow
