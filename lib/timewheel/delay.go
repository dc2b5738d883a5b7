package timewheel

import (
	"sync"
	"time"
)

var (
	tw     *Timer
	twOnce sync.Once
)

// Default returns the package timer: one second per slot, 3600 slots.
// It is started on first use.
func Default() *Timer {
	twOnce.Do(func() {
		tw = mustNewTimer(time.Second, 3600)
		tw.Start()
	})
	return tw
}

func mustNewTimer(interval time.Duration, slots int) *Timer {
	t, err := NewTimer(interval, slots)
	if err != nil {
		panic(err)
	}
	return t
}

// Delay runs job after duration on the default timer.
func Delay(duration time.Duration, key string, job func()) error {
	return Default().AddJob(duration, key, job)
}

// At runs job at the given time on the default timer.
func At(at time.Time, key string, job func()) error {
	return Default().AddJob(time.Until(at), key, job)
}

// Cancel removes the job registered under key from the default timer.
func Cancel(key string) error {
	return Default().RemoveJob(key)
}
