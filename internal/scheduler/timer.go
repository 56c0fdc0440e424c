// Package scheduler holds the single pending delayed power-off.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"hostrelay/pkg/logging"
)

// ErrInvalidDelay is returned for non-positive delays.
var ErrInvalidDelay = errors.New("delay must be positive")

// State of the Timer.
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
)

// Pending describes the armed action.
type Pending struct {
	Delay       time.Duration
	ScheduledAt time.Time
	FireAt      time.Time
}

// Remaining returns how long until the action fires, measured from now.
func (p Pending) Remaining(now time.Time) time.Duration {
	if d := p.FireAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// stopper is the subset of *time.Timer the scheduler needs.
type stopper interface {
	Stop() bool
}

// Timer owns at most one pending action. Scheduling a new action cancels the
// previous one first; a cancelled or superseded action never runs.
type Timer struct {
	mu      sync.Mutex
	gen     uint64
	pending *Pending
	timer   stopper

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) stopper
}

// New returns an idle Timer backed by the wall clock.
func New() *Timer {
	return &Timer{
		now: time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Schedule arms fn to run once after delay. If an action is already pending it
// is cancelled and previous describes it.
func (t *Timer) Schedule(delay time.Duration, fn func()) (current Pending, previous *Pending, err error) {
	if delay <= 0 {
		return Pending{}, nil, fmt.Errorf("%w: %s", ErrInvalidDelay, delay)
	}
	if fn == nil {
		return Pending{}, nil, errors.New("scheduled action must not be nil")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending != nil {
		prev := *t.pending
		previous = &prev
		t.cancelLocked()
		logging.Info("Scheduler", "replaced pending action due at %s", prev.FireAt.Format(time.RFC3339))
	}

	t.gen++
	gen := t.gen
	now := t.now()
	current = Pending{Delay: delay, ScheduledAt: now, FireAt: now.Add(delay)}
	t.pending = &current
	t.timer = t.afterFunc(delay, func() { t.fire(gen, fn) })

	logging.Info("Scheduler", "action armed, fires in %s at %s", delay, current.FireAt.Format(time.RFC3339))
	return current, previous, nil
}

// fire runs fn only if gen is still the armed generation. The check and the
// transition back to idle happen under the lock, so a Cancel that returned
// before this point always wins.
func (t *Timer) fire(gen uint64, fn func()) {
	t.mu.Lock()
	if t.gen != gen || t.pending == nil {
		t.mu.Unlock()
		logging.Debug("Scheduler", "stale timer generation %d ignored", gen)
		return
	}
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()

	logging.Info("Scheduler", "pending action firing")
	fn()
}

// Cancel disarms the pending action. It reports whether something was pending
// and is a no-op otherwise.
func (t *Timer) Cancel() (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return Pending{}, false
	}
	prev := *t.pending
	t.cancelLocked()
	logging.Info("Scheduler", "pending action due at %s cancelled", prev.FireAt.Format(time.RFC3339))
	return prev, true
}

func (t *Timer) cancelLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = nil
	t.pending = nil
}

// Pending returns the armed action, if any.
func (t *Timer) Pending() (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		return Pending{}, false
	}
	return *t.pending, true
}

// State reports idle or pending.
func (t *Timer) State() State {
	if _, ok := t.Pending(); ok {
		return StatePending
	}
	return StateIdle
}
