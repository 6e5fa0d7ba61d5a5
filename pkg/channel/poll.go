package channel

import (
	"context"

	wfcontext "github.com/vnykmshr/wakeflow/pkg/common/context"
)

// Status is the outcome of a single poll attempt.
type Status int

const (
	// Pending means no result is available yet; the waker has been registered.
	Pending Status = iota

	// Ready means a value was produced.
	Ready

	// Done means no value will ever be produced again.
	Done
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// PollFunc makes one non-blocking attempt and registers w when it returns Pending.
type PollFunc[T any] func(w Waker) (T, Status, error)

// Block drives poll until it returns Ready or Done, parking the calling
// goroutine on a Signal between attempts. If ctx ends while parked, Block
// returns ctx.Err() with status Pending; the registered Signal stays with the
// channel until the next poll replaces it, which is harmless.
func Block[T any](ctx context.Context, poll PollFunc[T]) (T, Status, error) {
	sig := NewSignal()
	for {
		v, st, err := poll(sig)
		if st != Pending {
			return v, st, err
		}

		if wfcontext.IsCanceled(ctx) {
			var zero T
			return zero, Pending, ctx.Err()
		}

		select {
		case <-sig.C():
		case <-ctx.Done():
			var zero T
			return zero, Pending, ctx.Err()
		}
	}
}
