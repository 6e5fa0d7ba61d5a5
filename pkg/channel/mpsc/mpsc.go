package mpsc

import (
	"context"
	"iter"
	"sync"

	"github.com/vnykmshr/wakeflow/internal/ring"
	"github.com/vnykmshr/wakeflow/pkg/channel"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
)

// Stats holds a snapshot of channel counters.
type Stats struct {
	// Sent is the total number of values accepted.
	Sent uint64

	// Received is the total number of values delivered to the receiver.
	Received uint64

	// Rejected is the total number of sends handed back to the caller.
	Rejected uint64

	// Buffered is the number of values waiting in the queue.
	Buffered int

	// Senders is the number of live Sender handles.
	Senders int
}

// inner is the state shared by every handle of one channel.
type inner[T any] struct {
	mu  sync.Mutex
	obs *channel.Observer

	buffer    ring.Buffer[T]
	waker     channel.Waker
	rxDropped bool
	txsLeft   int

	sent     uint64
	received uint64
	rejected uint64
}

// Sender appends values to the queue. Use Clone to obtain additional
// producers; every handle must be closed.
type Sender[T any] struct {
	inner  *inner[T]
	closed bool // guarded by inner.mu
}

// Receiver consumes values in FIFO order.
type Receiver[T any] struct {
	inner *inner[T]
}

// New creates an unbounded channel with one Sender and its Receiver.
func New[T any]() (*Sender[T], *Receiver[T]) {
	return NewWithConfig[T](channel.DefaultConfig())
}

// NewWithConfig creates an unbounded channel with the given configuration.
func NewWithConfig[T any](cfg channel.Config) (*Sender[T], *Receiver[T]) {
	in := &inner[T]{
		obs:     channel.NewObserver(channel.KindMPSC, cfg),
		txsLeft: 1,
	}
	in.obs.Gauges(0, 1, 1)
	return &Sender[T]{inner: in}, &Receiver[T]{inner: in}
}

// Send appends value to the tail of the queue and wakes the receiver if it
// is waiting. Send never blocks.
//
// It fails with a *errors.SendError wrapping errors.ErrReceiverDropped once
// the receiver is closed, or errors.ErrClosed if this handle was closed. The
// rejected value is returned inside the error.
func (s *Sender[T]) Send(value T) error {
	in := s.inner

	in.mu.Lock()
	var cause error
	switch {
	case s.closed:
		cause = wferrors.ErrClosed
	case in.rxDropped:
		cause = wferrors.ErrReceiverDropped
	}
	if cause != nil {
		in.rejected++
		in.mu.Unlock()
		in.obs.Rejected(cause)
		return wferrors.NewSendError(value, cause)
	}

	in.buffer.PushBack(value)
	in.sent++
	w := in.waker
	in.waker = nil
	buffered, senders := in.buffer.Len(), in.txsLeft
	in.mu.Unlock()

	in.obs.Sent()
	in.obs.Gauges(buffered, senders, 1)
	in.obs.Woke(channel.WakeAll(w))
	return nil
}

// Clone returns a new Sender for the same channel. Cloning a closed handle
// returns another closed handle.
func (s *Sender[T]) Clone() *Sender[T] {
	in := s.inner

	in.mu.Lock()
	defer in.mu.Unlock()
	if s.closed {
		return &Sender[T]{inner: in, closed: true}
	}
	in.txsLeft++
	return &Sender[T]{inner: in}
}

// Close releases this handle. When the last Sender closes, a waiting
// receiver is woken so it can observe the end of the stream. Repeated
// calls are no-ops.
func (s *Sender[T]) Close() {
	in := s.inner

	in.mu.Lock()
	if s.closed {
		in.mu.Unlock()
		return
	}
	s.closed = true
	in.txsLeft--
	var w channel.Waker
	if in.txsLeft == 0 {
		w = in.waker
		in.waker = nil
	}
	buffered, senders, receivers := in.buffer.Len(), in.txsLeft, liveReceivers(in.rxDropped)
	in.mu.Unlock()

	if senders == 0 {
		in.obs.Debug("last sender closed", "buffered", buffered)
	}
	in.obs.Gauges(buffered, senders, receivers)
	in.obs.Woke(channel.WakeAll(w))
}

// IsReceiverDropped reports whether the receiver has been closed.
func (s *Sender[T]) IsReceiverDropped() bool {
	s.inner.mu.Lock()
	defer s.inner.mu.Unlock()
	return s.inner.rxDropped
}

// Poll makes one attempt to take the head of the queue.
//
// It returns the value with channel.Ready when the queue is non-empty. When
// the queue is empty it returns channel.Done if every Sender has closed (or
// the receiver itself was closed), and otherwise registers w, replacing any
// earlier waker, and returns channel.Pending.
func (r *Receiver[T]) Poll(w channel.Waker) (T, channel.Status) {
	return r.poll(w)
}

// TryRecv is Poll without registering a waker.
func (r *Receiver[T]) TryRecv() (T, channel.Status) {
	return r.poll(nil)
}

// Recv blocks until a value is available, the stream ends, or ctx ends.
// ok is false at the end of the stream; err is non-nil only when ctx ended.
func (r *Receiver[T]) Recv(ctx context.Context) (value T, ok bool, err error) {
	v, st, err := channel.Block(ctx, func(w channel.Waker) (T, channel.Status, error) {
		v, st := r.poll(w)
		return v, st, nil
	})
	return v, st == channel.Ready, err
}

// All returns an iterator over received values. Iteration stops at the end
// of the stream or when ctx ends; check ctx.Err() to tell them apart.
func (r *Receiver[T]) All(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok, err := r.Recv(ctx)
			if err != nil || !ok {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of queued values.
func (r *Receiver[T]) Len() int {
	r.inner.mu.Lock()
	defer r.inner.mu.Unlock()
	return r.inner.buffer.Len()
}

// Stats returns a snapshot of the channel counters.
func (r *Receiver[T]) Stats() Stats {
	in := r.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	return Stats{
		Sent:     in.sent,
		Received: in.received,
		Rejected: in.rejected,
		Buffered: in.buffer.Len(),
		Senders:  in.txsLeft,
	}
}

// Close releases the receiver. Queued values are discarded and every later
// Send fails with errors.ErrReceiverDropped.
func (r *Receiver[T]) Close() {
	in := r.inner

	in.mu.Lock()
	if in.rxDropped {
		in.mu.Unlock()
		return
	}
	in.rxDropped = true
	discarded := in.buffer.Len()
	in.buffer.Reset()
	in.waker = nil
	senders := in.txsLeft
	in.mu.Unlock()

	in.obs.Debug("receiver closed", "discarded", discarded)
	in.obs.Gauges(0, senders, 0)
}

func (r *Receiver[T]) poll(w channel.Waker) (T, channel.Status) {
	in := r.inner
	var zero T

	in.mu.Lock()
	if in.rxDropped {
		in.mu.Unlock()
		return zero, channel.Done
	}
	if v, ok := in.buffer.PopFront(); ok {
		in.received++
		buffered, senders := in.buffer.Len(), in.txsLeft
		in.mu.Unlock()
		in.obs.Received()
		in.obs.Gauges(buffered, senders, 1)
		return v, channel.Ready
	}
	if in.txsLeft == 0 {
		in.mu.Unlock()
		return zero, channel.Done
	}
	if w != nil {
		in.waker = w
	}
	in.mu.Unlock()
	return zero, channel.Pending
}

func liveReceivers(dropped bool) int {
	if dropped {
		return 0
	}
	return 1
}
