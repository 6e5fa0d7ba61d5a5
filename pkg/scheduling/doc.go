/*
Package scheduling groups the task execution components built on wakeflow
channels.

  - workerpool: fixed worker pool whose results stream through an MPSC
    channel, with per-task completion through a oneshot channel
  - scheduler: one-time, interval and cron entries whose fires are
    broadcast to every subscriber

Worker Pool:

	pool, err := workerpool.New(4, 100)
	if err != nil {
		return err
	}

	rx, err := pool.SubmitAwait(ctx, task)
	if err != nil {
		return err
	}
	result, err := rx.Recv(ctx)

	<-pool.Shutdown()

Scheduler:

	s, err := scheduler.NewWithConfig(scheduler.Config{WorkerPool: pool})
	if err != nil {
		return err
	}
	fires := s.Subscribe()
	s.ScheduleCron("weekday-report", "0 0 9 * * MON-FRI", task)
	s.Start()

	for f := range fires.All(ctx) {
		log.Printf("%s fired at %s", f.TaskID, f.FiredAt)
	}

The scheduler submits due tasks to the pool it was configured with, or to a
private pool when none is given.
*/
package scheduling
