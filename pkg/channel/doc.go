/*
Package channel defines the waker contract shared by the oneshot, mpsc and
broadcast channels, and the instrumentation they report through.

Every channel is a single mutex-guarded state object shared by Sender and
Receiver handles. Sending never blocks. Receiving is a poll:

	v, status := rx.Poll(w)

A poll either returns a value (Ready), reports that no value will ever come
(Done), or stores w and returns Pending. The channel calls w.Wake, after
releasing its lock, at least once when the next poll could make progress.
Only the most recently registered waker is kept.

Waker Implementations:

	// Function adapter
	rx.Poll(channel.WakerFunc(func() { reschedule(task) }))

	// Coalescing notification channel
	sig := channel.NewSignal()
	if _, st := rx.Poll(sig); st == channel.Pending {
		<-sig.C()
	}

Blocking Receive:

Block turns a poll function into a blocking, context-aware receive. Each
channel's Recv method is built on it:

	v, status, err := channel.Block(ctx, func(w channel.Waker) (int, channel.Status, error) {
		v, st := rx.Poll(w)
		return v, st, nil
	})

Handle Lifecycle:

Handles stay active until Close is called. Close is the only teardown
mechanism and must run on every exit path, so pair every constructor, Clone
and Subscribe with a deferred Close:

	tx, rx := mpsc.New[int]()
	defer rx.Close()

	go func() {
		defer tx.Close()
		tx.Send(1)
	}()

Instrumentation:

Config carries an optional *slog.Logger and *metrics.Registry:

	cfg := channel.Config{
		Name:    "jobs",
		Logger:  logger,
		Metrics: metrics.NewRegistry(prometheus.NewRegistry()),
	}
	tx, rx := mpsc.NewWithConfig[Job](cfg)
*/
package channel
