package timewheel

import "errors"

// ErrInvalidCapacity is returned when a wheel is built without buckets.
var ErrInvalidCapacity = errors.New("timewheel: capacity must be greater than 0")

// Wheel is a hashed timing wheel with a fixed number of buckets.
// A value scheduled for ticks >= capacity wraps onto an earlier revolution's
// bucket; callers needing longer delays re-schedule across revolutions.
//
// Wheel is not safe for concurrent use.
type Wheel[T any] struct {
	capacity int
	current  int   // bucket drained by the next Tick
	size     int   // sum of len(bucket) over all buckets
	buckets  [][]T // insertion order is kept inside a bucket
}

// New creates a wheel with capacity empty buckets.
func New[T any](capacity int) (*Wheel[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Wheel[T]{
		capacity: capacity,
		buckets:  make([][]T, capacity),
	}, nil
}

// MustNew is like New but panics on an invalid capacity.
func MustNew[T any](capacity int) *Wheel[T] {
	w, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return w
}

// Size returns the number of values currently scheduled.
func (w *Wheel[T]) Size() int {
	return w.size
}

// Capacity returns the number of buckets, fixed at construction.
func (w *Wheel[T]) Capacity() int {
	return w.capacity
}

// Position returns the index of the bucket the next Tick drains.
func (w *Wheel[T]) Position() int {
	return w.current
}

// Schedule places value in the bucket that becomes due after ticks ticks.
// Negative ticks are treated as 0.
func (w *Wheel[T]) Schedule(ticks int, value T) {
	if ticks < 0 {
		ticks = 0
	}
	// ticks%capacity first so current+ticks cannot overflow
	index := (w.current + ticks%w.capacity) % w.capacity
	w.buckets[index] = append(w.buckets[index], value)
	w.size++
}

// Tick removes and returns every value in the current bucket, then moves
// the wheel forward by one bucket.
func (w *Wheel[T]) Tick() []T {
	batch := w.buckets[w.current]
	w.buckets[w.current] = nil

	w.current++
	if w.current == w.capacity {
		w.current = 0
	}

	w.size -= len(batch)
	return batch
}
