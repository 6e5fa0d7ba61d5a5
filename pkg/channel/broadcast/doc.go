/*
Package broadcast provides an unbounded multi-producer, multi-consumer
channel in which every receiver observes every value sent after it joined.

All Sender handles append to one shared buffer. Each Receiver keeps its own
read cursor into that buffer, so a slow receiver never causes a fast one to
miss or repeat values, and all receivers see the values in the same order.

Basic Usage:

	tx, rx := broadcast.New[Event]()

	audit := rx.Clone()
	go func() {
		defer audit.Close()
		for ev := range audit.All(ctx) {
			record(ev)
		}
	}()

	go func() {
		defer rx.Close()
		for ev := range rx.All(ctx) {
			render(ev)
		}
	}()

	for ev := range events {
		if err := tx.Send(ev); err != nil {
			break // every receiver is gone
		}
	}
	tx.Close()

Joining a Channel:

There are two ways to obtain another receiver:

  - Receiver.Clone starts the new cursor at the front of the retained buffer,
    so the clone also sees values that slower receivers have not read yet.
    If every receiver is caught up, the clone sees only future values.
  - Sender.Subscribe starts the new cursor at the tail, so the new receiver
    sees only values sent after the call. This also works after every
    receiver has been closed.

Values that were released from the buffer are never replayed.

Buffer Retention:

A value stays buffered until every live receiver has read it. The buffer is
trimmed on Send, when the receiver at the front reads, and when a receiver
is closed. A receiver that stops reading without calling Close pins every
value sent after its cursor, so close receivers you no longer need.

Use Receiver.Lag and Stats to watch for slow consumers:

	if rx.Lag() > 10_000 {
		log.Warn("consumer falling behind", "lag", rx.Lag())
	}

End of Stream:

When the last Sender closes, every waiting receiver is woken. Receivers
drain what they have not read and then observe end of stream: Poll returns
channel.Done, Recv returns ok == false and All stops.

Send Failures:

Send fails only when no receiver is registered or the Sender itself was
closed. The value is handed back inside a *errors.SendError:

	var serr *errors.SendError[Event]
	if stderrors.As(err, &serr) {
		requeue(serr.Value)
	}

Thread Safety:

All handles are safe for concurrent use. Wakers are invoked after the
channel lock is released, so a waker may call back into the channel.
*/
package broadcast
