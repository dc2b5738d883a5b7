package timewheel

import (
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	timerStateInit int32 = iota
	timerStateStarted
	timerStateStopped
)

var (
	ErrInvalidInterval = errors.New("timewheel: interval must be greater than 0")
	ErrTimerNotRunning = errors.New("timewheel: timer is not running")
)

// Timer drives a Wheel from a time.Ticker. Only the loop goroutine touches
// the wheel; AddJob and RemoveJob hand their work over through channels.
type Timer struct {
	interval       time.Duration
	wheel          *Wheel[*task]
	live           map[string]uint64 // key -> generation of its live task
	seq            uint64
	ticker         *time.Ticker
	addTaskChan    chan *task
	removeTaskChan chan string
	stopChan       chan struct{}
	state          int32

	// mirrors of the wheel state for Stats, written by the loop goroutine
	position atomic.Int64
	pending  atomic.Int64
}

type task struct {
	delay  time.Duration
	rounds int // full revolutions left before the job fires
	key    string
	gen    uint64
	job    func()
}

// Stats is a snapshot of a Timer. Pending counts every task still resident
// in the wheel, cancelled ones included until their bucket is drained.
type Stats struct {
	Slots    int    `json:"slots"`
	Interval string `json:"interval"`
	Position int    `json:"position"`
	Pending  int    `json:"pending"`
}

// NewTimer creates a timer ticking every interval over slots buckets.
// The longest delay without extra revolutions is interval*slots.
func NewTimer(interval time.Duration, slots int) (*Timer, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	wheel, err := New[*task](slots)
	if err != nil {
		return nil, err
	}
	return &Timer{
		interval:       interval,
		wheel:          wheel,
		live:           make(map[string]uint64),
		addTaskChan:    make(chan *task),
		removeTaskChan: make(chan string),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start launches the loop goroutine. Only the first call has an effect.
func (tw *Timer) Start() {
	if !atomic.CompareAndSwapInt32(&tw.state, timerStateInit, timerStateStarted) {
		return
	}
	tw.ticker = time.NewTicker(tw.interval)
	go tw.start()
}

// Stop halts the timer. Jobs still in the wheel never run. Stop may be
// called more than once, and before Start.
func (tw *Timer) Stop() {
	for {
		state := atomic.LoadInt32(&tw.state)
		if state == timerStateStopped {
			return
		}
		if atomic.CompareAndSwapInt32(&tw.state, state, timerStateStopped) {
			close(tw.stopChan)
			return
		}
	}
}

// AddJob runs job once delay has passed, rounded down to whole intervals.
// A non-empty key identifies the job for RemoveJob; adding a key that is
// still pending replaces the earlier job.
func (tw *Timer) AddJob(delay time.Duration, key string, job func()) error {
	if delay < 0 {
		delay = 0
	}
	if atomic.LoadInt32(&tw.state) != timerStateStarted {
		return ErrTimerNotRunning
	}
	select {
	case tw.addTaskChan <- &task{delay: delay, key: key, job: job}:
		return nil
	case <-tw.stopChan:
		return ErrTimerNotRunning
	}
}

// RemoveJob cancels the pending job registered under key, if any.
func (tw *Timer) RemoveJob(key string) error {
	if atomic.LoadInt32(&tw.state) != timerStateStarted {
		return ErrTimerNotRunning
	}
	if key == "" {
		return nil
	}
	select {
	case tw.removeTaskChan <- key:
		return nil
	case <-tw.stopChan:
		return ErrTimerNotRunning
	}
}

// Stats returns a snapshot of the timer.
func (tw *Timer) Stats() Stats {
	return Stats{
		Slots:    tw.wheel.Capacity(),
		Interval: tw.interval.String(),
		Position: int(tw.position.Load()),
		Pending:  int(tw.pending.Load()),
	}
}

func (tw *Timer) start() {
	for {
		select {
		case <-tw.ticker.C:
			tw.tickHandler()
		case t := <-tw.addTaskChan:
			tw.addTask(t)
		case key := <-tw.removeTaskChan:
			tw.removeTask(key)
		case <-tw.stopChan:
			tw.ticker.Stop()
			return
		}
	}
}

func (tw *Timer) tickHandler() {
	for _, t := range tw.wheel.Tick() {
		if t.key != "" && tw.live[t.key] != t.gen {
			// cancelled or replaced
			continue
		}
		if t.rounds > 0 {
			t.rounds--
			// the wheel already moved past t's bucket, capacity-1 lands on it again
			tw.wheel.Schedule(tw.wheel.Capacity()-1, t)
			continue
		}
		if t.key != "" {
			delete(tw.live, t.key)
		}
		go runJob(t)
	}
	tw.syncStats()
}

func runJob(t *task) {
	defer func() {
		if err := recover(); err != nil {
			zap.L().Error("TimeWheel job panicked", zap.String("key", t.key), zap.Any("err", err))
		}
	}()
	t.job()
}

func (tw *Timer) addTask(t *task) {
	steps := int(t.delay / tw.interval)
	t.rounds = steps / tw.wheel.Capacity()
	if t.key != "" {
		tw.seq++
		t.gen = tw.seq
		// an older task under the same key becomes a tombstone
		tw.live[t.key] = t.gen
	}
	tw.wheel.Schedule(steps, t)
	zap.L().Debug("TimeWheel task added",
		zap.String("key", t.key),
		zap.Duration("delay", t.delay),
		zap.Int("rounds", t.rounds))
	tw.syncStats()
}

func (tw *Timer) removeTask(key string) {
	delete(tw.live, key)
}

func (tw *Timer) syncStats() {
	tw.position.Store(int64(tw.wheel.Position()))
	tw.pending.Store(int64(tw.wheel.Size()))
}
