/*
Package workerpool runs tasks on a fixed number of worker goroutines and
reports their results through wakeflow channels.

Every worker holds a clone of one MPSC sender, so the pool's results form a
single stream that ends on its own once the pool has shut down and the last
worker has exited. A caller that only cares about one task can use
SubmitAwait, which hands back a oneshot receiver for that task's Result.

Basic usage:

	pool, err := workerpool.New(4, 100) // 4 workers, queue size 100
	if err != nil {
		return err
	}

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	})

	if err := pool.Submit(task); err != nil {
		log.Printf("Failed to submit: %v", err)
	}
	<-pool.Shutdown()

	for result := range pool.Results().All(ctx) {
		if result.Error != nil {
			log.Printf("Task %d failed: %v", result.TaskID, result.Error)
		}
	}

Awaiting One Task:

	rx, err := pool.SubmitAwait(ctx, task)
	if err != nil {
		return err
	}
	result, err := rx.Recv(ctx)

SubmitAwait results are delivered on the Results stream as well. The stream
is unbounded and keeps results until they are read, so a caller that does
not read it should close it:

	pool.Results().Close()

Workers keep running after the stream is closed; their results are simply
discarded.

Configuration:

	cfg := workerpool.DefaultConfig()
	cfg.Name = "thumbnails"
	cfg.WorkerCount = runtime.NumCPU()
	cfg.QueueSize = 256
	cfg.TaskTimeout = 30 * time.Second
	cfg.Metrics = metrics.DefaultRegistry
	cfg.PanicHandler = func(task workerpool.Task, recovered any) {
		alert(recovered)
	}
	pool, err := workerpool.NewWithConfig(cfg)

Invalid configurations are rejected with a *errors.ValidationError.

A QueueSize of zero hands each task straight to an idle worker, so Submit
blocks until one is free. Use SubmitWithContext or SubmitWithTimeout to
bound that wait.

Panics:

A panicking task does not take its worker down. The panic is recovered,
passed to PanicHandler if set, logged, and reported as a Result whose Error
wraps ErrTaskPanicked and includes the stack trace.

Shutdown:

Shutdown stops accepting new tasks. Tasks already queued still run. The
returned channel closes once every worker has exited, after which the
Results stream reports end of stream. ShutdownContext waits with a deadline.

Monitoring:

	fmt.Printf("Queue size: %d\n", pool.QueueSize())
	fmt.Printf("Active workers: %d\n", pool.ActiveWorkers())
	fmt.Printf("Total submitted: %d\n", pool.TotalSubmitted())
	fmt.Printf("Total completed: %d\n", pool.TotalCompleted())

With Config.Metrics set, the pool also exports submitted, completed and
failed task counters, an execution duration histogram and worker gauges,
labelled with the pool name. The results channel is instrumented under the
name "<pool>.results".

Thread Safety:

All pool operations are safe for concurrent use from multiple goroutines.
*/
package workerpool
