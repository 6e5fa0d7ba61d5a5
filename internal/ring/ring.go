// Package ring implements the growable FIFO ring buffer backing the mpsc and
// broadcast channels. It is not safe for concurrent use; callers hold the
// channel lock.
package ring

const minCapacity = 8

// Buffer is a growable circular FIFO queue.
type Buffer[T any] struct {
	buf   []T
	head  int
	count int
}

// Len returns the number of buffered values.
func (b *Buffer[T]) Len() int {
	return b.count
}

// PushBack appends v at the tail, growing the buffer when full.
func (b *Buffer[T]) PushBack(v T) {
	if b.count == len(b.buf) {
		b.grow()
	}
	b.buf[(b.head+b.count)%len(b.buf)] = v
	b.count++
}

// PopFront removes and returns the head value. ok is false when empty.
func (b *Buffer[T]) PopFront() (v T, ok bool) {
	if b.count == 0 {
		return v, false
	}
	var zero T
	v = b.buf[b.head]
	b.buf[b.head] = zero // Clear reference
	b.head = (b.head + 1) % len(b.buf)
	b.count--
	return v, true
}

// At returns the value i positions from the head. ok is false when i is out
// of range.
func (b *Buffer[T]) At(i int) (v T, ok bool) {
	if i < 0 || i >= b.count {
		return v, false
	}
	return b.buf[(b.head+i)%len(b.buf)], true
}

// DropFront discards up to n values from the head and returns how many were
// removed.
func (b *Buffer[T]) DropFront(n int) int {
	if n > b.count {
		n = b.count
	}
	var zero T
	for i := 0; i < n; i++ {
		b.buf[b.head] = zero
		b.head = (b.head + 1) % len(b.buf)
	}
	b.count -= n
	if b.count == 0 {
		b.head = 0
	}
	return n
}

// Reset drops every value and releases the backing array.
func (b *Buffer[T]) Reset() {
	b.buf = nil
	b.head = 0
	b.count = 0
}

func (b *Buffer[T]) grow() {
	size := len(b.buf) * 2
	if size < minCapacity {
		size = minCapacity
	}
	next := make([]T, size)
	if b.count > 0 {
		n := copy(next, b.buf[b.head:])
		copy(next[n:], b.buf[:b.head])
	}
	b.buf = next
	b.head = 0
}
