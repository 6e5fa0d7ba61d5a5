package broadcast

import (
	"context"
	"iter"
	"math"
	"sync"

	"github.com/vnykmshr/wakeflow/internal/ring"
	"github.com/vnykmshr/wakeflow/pkg/channel"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
)

// Stats holds a snapshot of channel counters.
type Stats struct {
	// Sent is the total number of values accepted.
	Sent uint64

	// Rejected is the total number of sends handed back to the caller.
	Rejected uint64

	// Buffered is the number of values retained for receivers that have not
	// read them yet.
	Buffered int

	// Cleared is the number of values released from the front of the buffer.
	Cleared uint64

	// Senders is the number of live Sender handles.
	Senders int

	// Receivers is the number of live Receiver handles.
	Receivers int
}

// receiverMeta is the read cursor of one receiver.
type receiverMeta struct {
	// nextIndexAbs is the absolute index of the next value to read;
	// nextIndexAbs - clearCount is its position in the buffer.
	nextIndexAbs uint64
	waker        channel.Waker
}

// inner is the state shared by every handle of one channel.
type inner[T any] struct {
	mu  sync.Mutex
	obs *channel.Observer

	buffer ring.Buffer[T]
	// clearCount is the absolute index of the buffer front.
	clearCount uint64
	txsLeft    int
	receivers  map[uint64]*receiverMeta
	nextID     uint64

	sent     uint64
	rejected uint64
}

// Sender publishes values to every live receiver.
type Sender[T any] struct {
	inner  *inner[T]
	closed bool // guarded by inner.mu
}

// Receiver reads the channel through its own cursor, independently of other
// receivers.
type Receiver[T any] struct {
	inner *inner[T]
	id    uint64
}

// New creates a channel with one Sender and one Receiver (id 0).
func New[T any]() (*Sender[T], *Receiver[T]) {
	return NewWithConfig[T](channel.DefaultConfig())
}

// NewWithConfig creates a channel with the given configuration.
func NewWithConfig[T any](cfg channel.Config) (*Sender[T], *Receiver[T]) {
	in := &inner[T]{
		obs:       channel.NewObserver(channel.KindBroadcast, cfg),
		txsLeft:   1,
		receivers: map[uint64]*receiverMeta{0: {}},
		nextID:    1,
	}
	in.obs.Gauges(0, 1, 1)
	return &Sender[T]{inner: in}, &Receiver[T]{inner: in, id: 0}
}

// Send publishes value to every live receiver and wakes those that are
// waiting. Send never blocks.
//
// Before appending, values that every receiver has already read are released
// from the front of the buffer. Send fails with a *errors.SendError wrapping
// errors.ErrReceiverDropped when no receiver is registered, or
// errors.ErrClosed if this handle was closed; the value is returned inside
// the error.
func (s *Sender[T]) Send(value T) error {
	in := s.inner

	in.mu.Lock()
	var cause error
	switch {
	case s.closed:
		cause = wferrors.ErrClosed
	case len(in.receivers) == 0:
		cause = wferrors.ErrReceiverDropped
	}
	if cause != nil {
		in.rejected++
		in.mu.Unlock()
		in.obs.Rejected(cause)
		return wferrors.NewSendError(value, cause)
	}

	trimmed := in.trimLocked()
	in.buffer.PushBack(value)
	in.sent++

	var wakers []channel.Waker
	for _, meta := range in.receivers {
		if meta.waker != nil {
			wakers = append(wakers, meta.waker)
			meta.waker = nil
		}
	}
	buffered, senders, receivers := in.buffer.Len(), in.txsLeft, len(in.receivers)
	in.mu.Unlock()

	in.obs.Trimmed(trimmed)
	in.obs.Sent()
	in.obs.Gauges(buffered, senders, receivers)
	in.obs.Woke(channel.WakeAll(wakers...))
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

// Subscribe registers a new Receiver that observes only values sent after
// the call, regardless of what is still buffered for other receivers.
// Subscribing works even when every other receiver is gone, after which
// sends succeed again.
func (s *Sender[T]) Subscribe() *Receiver[T] {
	in := s.inner

	in.mu.Lock()
	tail := in.clearCount + uint64(in.buffer.Len())
	rx := in.registerLocked(tail)
	buffered, senders, receivers := in.buffer.Len(), in.txsLeft, len(in.receivers)
	in.mu.Unlock()

	in.obs.Debug("receiver subscribed", "id", rx.id)
	in.obs.Gauges(buffered, senders, receivers)
	return rx
}

// Close releases this handle. When the last Sender closes, every waiting
// receiver is woken so it can observe the end of the stream. Repeated calls
// are no-ops.
func (s *Sender[T]) Close() {
	in := s.inner

	in.mu.Lock()
	if s.closed {
		in.mu.Unlock()
		return
	}
	s.closed = true
	in.txsLeft--

	var wakers []channel.Waker
	if in.txsLeft == 0 {
		for _, meta := range in.receivers {
			if meta.waker != nil {
				wakers = append(wakers, meta.waker)
				meta.waker = nil
			}
		}
	}
	buffered, senders, receivers := in.buffer.Len(), in.txsLeft, len(in.receivers)
	in.mu.Unlock()

	if senders == 0 {
		in.obs.Debug("last sender closed", "buffered", buffered, "receivers", receivers)
	}
	in.obs.Gauges(buffered, senders, receivers)
	in.obs.Woke(channel.WakeAll(wakers...))
}

// Stats returns a snapshot of the channel counters.
func (s *Sender[T]) Stats() Stats {
	return s.inner.stats()
}

// ID returns the receiver id used to key its cursor.
func (r *Receiver[T]) ID() uint64 {
	return r.id
}

// Clone registers a new, independent Receiver whose cursor starts at the
// front of the retained buffer. The clone sees values that are still
// retained for slower receivers and everything sent later, but never values
// that were already released. Cloning a closed Receiver returns a closed
// Receiver.
func (r *Receiver[T]) Clone() *Receiver[T] {
	in := r.inner

	in.mu.Lock()
	if _, ok := in.receivers[r.id]; !ok {
		id := in.nextID
		in.nextID++
		in.mu.Unlock()
		return &Receiver[T]{inner: in, id: id}
	}
	rx := in.registerLocked(in.clearCount)
	buffered, senders, receivers := in.buffer.Len(), in.txsLeft, len(in.receivers)
	in.mu.Unlock()

	in.obs.Debug("receiver cloned", "id", rx.id, "from", r.id)
	in.obs.Gauges(buffered, senders, receivers)
	return rx
}

// Poll makes one attempt to read the value at this receiver's cursor.
//
// It returns a copy of the value with channel.Ready and advances the cursor.
// When nothing is left to read it returns channel.Done if every Sender has
// closed (or this receiver was closed), and otherwise registers w for this
// receiver, replacing any earlier waker, and returns channel.Pending.
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

// Lag returns how many retained values this receiver has not read yet.
func (r *Receiver[T]) Lag() int {
	in := r.inner
	in.mu.Lock()
	defer in.mu.Unlock()

	meta, ok := in.receivers[r.id]
	if !ok {
		return 0
	}
	return int(in.clearCount + uint64(in.buffer.Len()) - meta.nextIndexAbs)
}

// Stats returns a snapshot of the channel counters.
func (r *Receiver[T]) Stats() Stats {
	return r.inner.stats()
}

// Close removes this receiver's cursor so it no longer pins buffered values,
// and releases whatever only this receiver was holding back. Repeated calls
// are no-ops.
func (r *Receiver[T]) Close() {
	in := r.inner

	in.mu.Lock()
	if _, ok := in.receivers[r.id]; !ok {
		in.mu.Unlock()
		return
	}
	delete(in.receivers, r.id)
	trimmed := in.trimLocked()
	buffered, senders, receivers := in.buffer.Len(), in.txsLeft, len(in.receivers)
	in.mu.Unlock()

	in.obs.Debug("receiver closed", "id", r.id, "receivers", receivers)
	in.obs.Trimmed(trimmed)
	in.obs.Gauges(buffered, senders, receivers)
}

func (r *Receiver[T]) poll(w channel.Waker) (T, channel.Status) {
	in := r.inner
	var zero T

	in.mu.Lock()
	meta, ok := in.receivers[r.id]
	if !ok {
		in.mu.Unlock()
		return zero, channel.Done
	}

	rel := meta.nextIndexAbs - in.clearCount
	if v, ok := in.buffer.At(int(rel)); ok {
		meta.nextIndexAbs++
		trimmed := 0
		if rel == 0 {
			// This receiver may have been the one pinning the front.
			trimmed = in.trimLocked()
		}
		buffered, senders, receivers := in.buffer.Len(), in.txsLeft, len(in.receivers)
		in.mu.Unlock()

		in.obs.Received()
		in.obs.Trimmed(trimmed)
		in.obs.Gauges(buffered, senders, receivers)
		return v, channel.Ready
	}

	if in.txsLeft == 0 {
		in.mu.Unlock()
		return zero, channel.Done
	}
	if w != nil {
		meta.waker = w
	}
	in.mu.Unlock()
	return zero, channel.Pending
}

// registerLocked adds a receiver whose cursor starts at absolute index at.
func (in *inner[T]) registerLocked(at uint64) *Receiver[T] {
	id := in.nextID
	in.nextID++
	in.receivers[id] = &receiverMeta{nextIndexAbs: at}
	return &Receiver[T]{inner: in, id: id}
}

// trimLocked releases the buffer prefix that every live receiver has read
// and returns how many values were released. With no receivers left the
// whole buffer is released.
func (in *inner[T]) trimLocked() int {
	minRead := uint64(math.MaxUint64)
	for _, meta := range in.receivers {
		if read := meta.nextIndexAbs - in.clearCount; read < minRead {
			minRead = read
		}
	}
	if minRead > uint64(in.buffer.Len()) {
		minRead = uint64(in.buffer.Len())
	}

	n := in.buffer.DropFront(int(minRead))
	in.clearCount += uint64(n)
	return n
}

func (in *inner[T]) stats() Stats {
	in.mu.Lock()
	defer in.mu.Unlock()
	return Stats{
		Sent:      in.sent,
		Rejected:  in.rejected,
		Buffered:  in.buffer.Len(),
		Cleared:   in.clearCount,
		Senders:   in.txsLeft,
		Receivers: len(in.receivers),
	}
}
