/*
Package mpsc provides an unbounded multi-producer, single-consumer FIFO channel.

Any number of Sender handles append to one queue; a single Receiver takes
values in the order the sends acquired the channel lock. Send never blocks
and never fails for capacity reasons.

Basic Usage:

	tx, rx := mpsc.New[Event]()
	defer rx.Close()

	for i := 0; i < workers; i++ {
		go func(tx *mpsc.Sender[Event]) {
			defer tx.Close()
			for ev := range produce() {
				if err := tx.Send(ev); err != nil {
					return // receiver gone
				}
			}
		}(tx.Clone())
	}
	tx.Close()

	for ev := range rx.All(ctx) {
		handle(ev)
	}

The stream ends once every Sender has been closed and the queue is drained.
Forgetting to close a Sender (including clones) keeps the receiver waiting
forever, so pair each Clone with a deferred Close.

Polling:

Poll is the non-blocking primitive the blocking forms are built on:

	v, st := rx.Poll(waker)
	switch st {
	case channel.Ready:
		// got v
	case channel.Done:
		// end of stream
	case channel.Pending:
		// waker will be called when a value arrives or the last sender closes
	}

End of stream is not an error: Recv reports it with ok == false and All
simply stops. Errors from Recv come only from ctx.

Send Failures:

Once the receiver is closed every Send returns a *errors.SendError wrapping
errors.ErrReceiverDropped with the rejected value inside:

	var serr *wferrors.SendError[Event]
	if errors.As(tx.Send(ev), &serr) {
		spill(serr.Value)
	}
*/
package mpsc
