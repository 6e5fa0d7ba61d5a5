package oneshot

import (
	"context"
	"sync"

	"github.com/vnykmshr/wakeflow/pkg/channel"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
)

// inner is the state shared by the Sender and the Receiver.
type inner[T any] struct {
	mu  sync.Mutex
	obs *channel.Observer

	value    T
	hasValue bool
	waker    channel.Waker

	// txDone is set by a successful Send or by Sender.Close.
	txDone    bool
	rxDropped bool
}

// Sender delivers a single value to the paired Receiver.
type Sender[T any] struct {
	inner *inner[T]
}

// Receiver takes the single value delivered by the paired Sender.
type Receiver[T any] struct {
	inner *inner[T]
}

// New creates a connected Sender/Receiver pair with default configuration.
func New[T any]() (*Sender[T], *Receiver[T]) {
	return NewWithConfig[T](channel.DefaultConfig())
}

// NewWithConfig creates a connected Sender/Receiver pair.
func NewWithConfig[T any](cfg channel.Config) (*Sender[T], *Receiver[T]) {
	in := &inner[T]{obs: channel.NewObserver(channel.KindOneshot, cfg)}
	in.obs.Gauges(0, 1, 1)
	return &Sender[T]{inner: in}, &Receiver[T]{inner: in}
}

// Send delivers value and consumes the sender. It never blocks.
//
// If the receiver was closed, Send returns a *errors.SendError wrapping
// errors.ErrReceiverDropped. A second Send, or a Send after Close, returns a
// *errors.SendError wrapping errors.ErrClosed and leaves the first value in
// place. In both cases value is handed back in the error.
func (s *Sender[T]) Send(value T) error {
	in := s.inner

	in.mu.Lock()
	var cause error
	switch {
	case in.txDone:
		cause = wferrors.ErrClosed
	case in.rxDropped:
		cause = wferrors.ErrReceiverDropped
	}
	if cause != nil {
		in.mu.Unlock()
		in.obs.Rejected(cause)
		return wferrors.NewSendError(value, cause)
	}

	in.value = value
	in.hasValue = true
	in.txDone = true
	w := in.waker
	in.waker = nil
	in.mu.Unlock()

	in.obs.Sent()
	in.obs.Gauges(1, 0, 1)
	in.obs.Woke(channel.WakeAll(w))
	return nil
}

// Close releases the sender. If no value was sent, a waiting receiver is
// woken and observes errors.ErrSenderDropped. Close after Send, and repeated
// Close, are no-ops.
func (s *Sender[T]) Close() {
	in := s.inner

	in.mu.Lock()
	if in.txDone {
		in.mu.Unlock()
		return
	}
	in.txDone = true
	w := in.waker
	in.waker = nil
	in.mu.Unlock()

	in.obs.Debug("sender closed without a value")
	in.obs.Gauges(0, 0, 1)
	in.obs.Woke(channel.WakeAll(w))
}

// IsReceiverDropped reports whether the receiver has been closed, in which
// case any Send will fail.
func (s *Sender[T]) IsReceiverDropped() bool {
	s.inner.mu.Lock()
	defer s.inner.mu.Unlock()
	return s.inner.rxDropped
}

// Poll makes one attempt to take the value.
//
// It returns the value with channel.Ready if one was sent, consuming it.
// It returns channel.Done with errors.ErrSenderDropped if the sender is gone
// and no value is stored (including after the value was taken). Otherwise
// it registers w, replacing any earlier waker, and returns channel.Pending.
func (r *Receiver[T]) Poll(w channel.Waker) (T, channel.Status, error) {
	return r.poll(w)
}

// TryRecv takes the value if it is available without registering a waker.
// ok is false when the value has not arrived yet and err is nil.
func (r *Receiver[T]) TryRecv() (value T, ok bool, err error) {
	v, st, err := r.poll(nil)
	return v, st == channel.Ready, err
}

// Recv blocks until the value arrives, the sender is dropped, or ctx ends.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	v, _, err := channel.Block(ctx, r.poll)
	return v, err
}

// Close releases the receiver. Later sends fail with errors.ErrReceiverDropped;
// a value that was sent but never taken is discarded.
func (r *Receiver[T]) Close() {
	in := r.inner

	in.mu.Lock()
	if in.rxDropped {
		in.mu.Unlock()
		return
	}
	in.rxDropped = true
	var zero T
	in.value = zero
	in.hasValue = false
	in.waker = nil
	senders := 1
	if in.txDone {
		senders = 0
	}
	in.mu.Unlock()

	in.obs.Debug("receiver closed")
	in.obs.Gauges(0, senders, 0)
}

func (r *Receiver[T]) poll(w channel.Waker) (T, channel.Status, error) {
	in := r.inner
	var zero T

	in.mu.Lock()
	switch {
	case in.rxDropped:
		in.mu.Unlock()
		return zero, channel.Done, wferrors.ErrClosed
	case in.hasValue:
		v := in.value
		in.value = zero
		in.hasValue = false
		in.mu.Unlock()
		in.obs.Received()
		in.obs.Gauges(0, 0, 1)
		return v, channel.Ready, nil
	case in.txDone:
		in.mu.Unlock()
		return zero, channel.Done, wferrors.ErrSenderDropped
	}
	if w != nil {
		in.waker = w
	}
	in.mu.Unlock()
	return zero, channel.Pending, nil
}
