/*
Package oneshot provides a channel that carries exactly one value from one
producer to one consumer.

	tx, rx := oneshot.New[Result]()

	go func() {
		defer tx.Close() // wakes rx with ErrSenderDropped if Send never ran
		tx.Send(compute())
	}()

	res, err := rx.Recv(ctx)
	if errors.Is(err, wferrors.ErrSenderDropped) {
		// producer gave up
	}

Send never blocks. It fails, handing the value back inside a
*errors.SendError, when the receiver has been closed or when the sender was
already used:

	if err := tx.Send(v); err != nil {
		var serr *wferrors.SendError[Result]
		if errors.As(err, &serr) {
			requeue(serr.Value)
		}
	}

The receive side is a poll. Poll either takes the value, reports that the
sender is gone, or registers the supplied waker and returns channel.Pending.
Recv wraps Poll in a blocking, context-aware loop.
*/
package oneshot
