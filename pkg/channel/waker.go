package channel

// Waker is the resumption handle a pending receiver registers with a channel.
// The channel invokes Wake, without holding its lock, at least once after a
// state change that could let the next poll make progress.
type Waker interface {
	Wake()
}

// WakerFunc adapts a plain function to the Waker interface.
type WakerFunc func()

// Wake implements Waker.
func (f WakerFunc) Wake() {
	f()
}

// Signal is a coalescing Waker backed by a one-slot channel. Wake never
// blocks; any number of wakes between two reads of C collapse into one
// notification.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates a Signal with no pending notification.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Wake implements Waker.
func (s *Signal) Wake() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that receives a value after Wake.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}

// WakeAll invokes every non-nil waker in ws and returns how many were woken.
// Callers must not hold a channel lock.
func WakeAll(ws ...Waker) int {
	n := 0
	for _, w := range ws {
		if w != nil {
			w.Wake()
			n++
		}
	}
	return n
}
