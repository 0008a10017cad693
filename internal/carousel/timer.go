package carousel

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type TimerConfig struct {
	Timeout time.Duration
	Settle  time.Duration
	Frame   time.Duration
}

// Timer drives a progress bar from 0 to 100 over Timeout. Each time it
// completes it calls onDone, drops back to 0 and waits Settle before
// counting again.
type Timer struct {
	clock  clockwork.Clock
	cfg    TimerConfig
	onDone func()

	mu          sync.Mutex
	elapsed     time.Duration // accumulated before the current run segment
	segStart    time.Time
	settleUntil time.Time
	paused      bool
	cycles      int
}

func NewTimer(clock clockwork.Clock, cfg TimerConfig, onDone func()) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if onDone == nil {
		onDone = func() {}
	}
	return &Timer{
		clock:    clock,
		cfg:      cfg,
		onDone:   onDone,
		segStart: clock.Now(),
	}
}

// Progress is elapsed/timeout as a percentage, clamped to [0,100].
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progressLocked(t.clock.Now())
}

func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Cycles counts completed runs.
func (t *Timer) Cycles() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cycles
}

func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return
	}
	t.elapsed = t.elapsedLocked(t.clock.Now())
	t.paused = true
}

func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	now := t.clock.Now()
	t.paused = false
	t.segStart = now
	if t.settleUntil.After(now) {
		t.segStart = t.settleUntil
	}
}

// Reset discards elapsed time and starts a fresh run immediately.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.elapsed = 0
	t.segStart = t.clock.Now()
	t.settleUntil = time.Time{}
}

// Tick handles one animation frame. Run calls it on every frame; it is
// exported so callers with their own loop can drive the timer.
func (t *Timer) Tick() {
	t.mu.Lock()
	now := t.clock.Now()
	if t.paused || now.Before(t.settleUntil) {
		t.mu.Unlock()
		return
	}
	if t.progressLocked(now) < 100 {
		t.mu.Unlock()
		return
	}

	t.elapsed = 0
	t.settleUntil = now.Add(t.cfg.Settle)
	t.segStart = t.settleUntil
	t.cycles++
	done := t.onDone
	t.mu.Unlock()

	done()
}

// Run ticks the timer once per frame until ctx is cancelled.
func (t *Timer) Run(ctx context.Context) error {
	frame := t.cfg.Frame
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	ticker := t.clock.NewTicker(frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			t.Tick()
		}
	}
}

func (t *Timer) elapsedLocked(now time.Time) time.Duration {
	if t.paused {
		return t.elapsed
	}
	if now.Before(t.segStart) {
		return t.elapsed
	}
	return t.elapsed + now.Sub(t.segStart)
}

func (t *Timer) progressLocked(now time.Time) float64 {
	if t.cfg.Timeout <= 0 {
		return 100
	}
	p := float64(t.elapsedLocked(now)) / float64(t.cfg.Timeout) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
