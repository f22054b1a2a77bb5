// Package ring provides a fixed-capacity circular buffer that overwrites its
// oldest element when full.
//
// Buffer is not safe for concurrent use; owners guard it with their own lock.
package ring

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 100

// Buffer is a fixed-capacity FIFO ring.
type Buffer[T any] struct {
	items []T
	head  int // index of the oldest element
	size  int
}

// New creates a Buffer holding at most capacity elements.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v. When the buffer is full the oldest element is overwritten
// and returned with evicted=true.
func (b *Buffer[T]) Push(v T) (old T, evicted bool) {
	if b.size < len(b.items) {
		b.items[(b.head+b.size)%len(b.items)] = v
		b.size++
		return old, false
	}
	old = b.items[b.head]
	b.items[b.head] = v
	b.head = (b.head + 1) % len(b.items)
	return old, true
}

// Len returns the number of retained elements.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// At returns the i-th retained element, 0 being the oldest.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.size {
		panic("ring: index out of range")
	}
	return b.items[(b.head+i)%len(b.items)]
}

// Last returns up to n of the newest elements, oldest first.
// n <= 0 returns everything.
func (b *Buffer[T]) Last(n int) []T {
	if n <= 0 || n > b.size {
		n = b.size
	}
	out := make([]T, 0, n)
	for i := b.size - n; i < b.size; i++ {
		out = append(out, b.items[(b.head+i)%len(b.items)])
	}
	return out
}

// Snapshot returns a copy of all retained elements, oldest first.
func (b *Buffer[T]) Snapshot() []T {
	return b.Last(0)
}

// Each calls fn for every retained element, oldest first, until fn returns false.
func (b *Buffer[T]) Each(fn func(T) bool) {
	for i := 0; i < b.size; i++ {
		if !fn(b.items[(b.head+i)%len(b.items)]) {
			return
		}
	}
}

// Clear drops all elements, keeping the capacity.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head = 0
	b.size = 0
}
