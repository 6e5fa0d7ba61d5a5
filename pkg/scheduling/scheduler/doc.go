/*
Package scheduler fires one-time, interval and cron entries and publishes
every firing to its subscribers.

Each entry may carry a workerpool.Task, which is submitted to a worker pool
when the entry comes due. Whether or not it has a task, every firing is sent
as a Fire to all subscribers through a broadcast channel, so any number of
consumers can react to the same schedule without coordinating.

Basic usage:

	s, err := scheduler.New()
	if err != nil {
		return err
	}
	defer func() { <-s.Stop() }()

	fires := s.Subscribe()
	defer fires.Close()

	s.ScheduleEvery("heartbeat", nil, 30*time.Second)
	s.ScheduleCron("nightly", "0 0 2 * * *", workerpool.TaskFunc(compact))

	if err := s.Start(); err != nil {
		return err
	}

	for f := range fires.All(ctx) {
		log.Printf("fired %s (%s)", f.TaskID, f.ID)
	}

Entries:

  - Schedule and ScheduleAfter fire once and are then removed.
  - ScheduleEvery fires immediately and then every interval after the
    previous fire.
  - ScheduleCron uses six-field expressions with seconds first, plus
    descriptors such as "@hourly" and "@every 5m". Expressions are evaluated
    in Config.Location.

Invalid ids, intervals and configurations are rejected with a
*errors.ValidationError; unparsable cron expressions with a
*errors.OperationError. ValidateCronExpression and DescribeCron check an
expression without scheduling it.

Subscribers:

Subscribe returns a receiver that sees every fire from that point on. A
subscriber that stops reading keeps fires buffered, so close receivers that
are no longer needed. With no subscribers, fires are dropped.

Stop ends every subscriber's stream: receivers drain what they have not read
and then observe end of stream.

Worker Pool:

Without Config.WorkerPool the scheduler creates a private pool, discards its
results stream and shuts it down on Stop. A pool passed in the config is
left running and its results are the caller's to read. If a task cannot be
submitted, the Fire carries the error in Err.

Testing:

The Clock in Config decides what "now" is. Drive a scheduler without its
ticker by advancing a manual clock and calling RunPending:

	clock := testutil.NewMockClock(start)
	s, _ := scheduler.NewWithConfig(scheduler.Config{Clock: clock})
	s.ScheduleAfter("once", nil, time.Minute)
	clock.Advance(time.Minute)
	s.RunPending() // fires "once"
*/
package scheduler
