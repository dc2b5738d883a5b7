package timewheel

// Drainer ticks a wheel until nothing is left in it.
//
// Each call to Next checks the wheel size before ticking: a non-empty wheel
// is ticked exactly once, an empty wheel ends the drain. Buckets that are
// empty while other buckets still hold values are ticked through, so Next may
// produce empty batches before the final one.
type Drainer[T any] struct {
	wheel *Wheel[T]
	batch []T
	ticks int
	done  bool
}

// Drain returns a cursor draining w. Scheduling into w while draining is
// allowed; the cursor only stops once the wheel is empty.
func (w *Wheel[T]) Drain() *Drainer[T] {
	return &Drainer[T]{wheel: w}
}

// Next ticks the wheel once. It returns false when the wheel was already
// empty, after which it keeps returning false.
func (d *Drainer[T]) Next() bool {
	if d.done || d.wheel.Size() == 0 {
		d.done = true
		d.batch = nil
		return false
	}
	d.batch = d.wheel.Tick()
	d.ticks++
	return true
}

// Batch returns the values drained by the last successful Next.
func (d *Drainer[T]) Batch() []T {
	return d.batch
}

// Ticks returns how many times the cursor ticked the wheel.
func (d *Drainer[T]) Ticks() int {
	return d.ticks
}

// DrainAll ticks w until it is empty and hands every batch to fn, empty
// batches included. It returns the number of ticks taken.
func (w *Wheel[T]) DrainAll(fn func(batch []T)) int {
	d := w.Drain()
	for d.Next() {
		if fn != nil {
			fn(d.Batch())
		}
	}
	return d.Ticks()
}
