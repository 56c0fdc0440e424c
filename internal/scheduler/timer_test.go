package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock lets tests fire timers deterministically.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (m *manualTimer) Stop() bool {
	was := !m.stopped
	m.stopped = true
	return was
}

func newManualTimer() (*Timer, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	tm := New()
	tm.now = func() time.Time { return clock.now }
	tm.afterFunc = func(d time.Duration, f func()) stopper {
		clock.mu.Lock()
		defer clock.mu.Unlock()
		mt := &manualTimer{delay: d, fn: f}
		clock.timers = append(clock.timers, mt)
		return mt
	}
	return tm, clock
}

// fireAll invokes every armed callback, including stopped ones, the way a
// timer racing with Stop could.
func (c *manualClock) fireAll() {
	c.mu.Lock()
	timers := append([]*manualTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, mt := range timers {
		mt.fn()
	}
}

func TestSchedule_RejectsNonPositiveDelay(t *testing.T) {
	tm, clock := newManualTimer()
	for _, d := range []time.Duration{0, -5 * time.Second} {
		_, _, err := tm.Schedule(d, func() {})
		assert.True(t, errors.Is(err, ErrInvalidDelay))
	}
	assert.Equal(t, StateIdle, tm.State())
	assert.Empty(t, clock.timers, "no timer may be created for an invalid delay")
}

func TestSchedule_ReplacesPendingAction(t *testing.T) {
	tm, clock := newManualTimer()
	var firstRuns, secondRuns int32

	_, prev, err := tm.Schedule(10*time.Second, func() { atomic.AddInt32(&firstRuns, 1) })
	require.NoError(t, err)
	assert.Nil(t, prev)

	current, prev, err := tm.Schedule(5*time.Second, func() { atomic.AddInt32(&secondRuns, 1) })
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, 10*time.Second, prev.Delay)
	assert.Equal(t, 5*time.Second, current.Delay)

	pending, ok := tm.Pending()
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, pending.Delay)
	assert.True(t, clock.timers[0].stopped, "the superseded timer must be stopped")

	clock.fireAll()
	assert.Equal(t, int32(0), atomic.LoadInt32(&firstRuns), "superseded action must never run")
	assert.Equal(t, int32(1), atomic.LoadInt32(&secondRuns))
	assert.Equal(t, StateIdle, tm.State())
}

func TestCancel_WithoutPendingIsNoop(t *testing.T) {
	tm, _ := newManualTimer()
	_, cancelled := tm.Cancel()
	assert.False(t, cancelled)
	_, cancelled = tm.Cancel()
	assert.False(t, cancelled)
	assert.Equal(t, StateIdle, tm.State())
}

func TestCancel_PreventsFiringEvenIfCallbackRaces(t *testing.T) {
	tm, clock := newManualTimer()
	var runs int32

	_, _, err := tm.Schedule(time.Second, func() { atomic.AddInt32(&runs, 1) })
	require.NoError(t, err)

	prev, cancelled := tm.Cancel()
	require.True(t, cancelled)
	assert.Equal(t, time.Second, prev.Delay)

	// The runtime timer fired anyway; the generation check must stop it.
	clock.fireAll()
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}

func TestFire_RunsExactlyOnce(t *testing.T) {
	tm, clock := newManualTimer()
	var runs int32

	_, _, err := tm.Schedule(time.Second, func() { atomic.AddInt32(&runs, 1) })
	require.NoError(t, err)

	clock.fireAll()
	clock.fireAll()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	_, pending := tm.Pending()
	assert.False(t, pending)
}

func TestPending_Remaining(t *testing.T) {
	tm, clock := newManualTimer()
	current, _, err := tm.Schedule(90*time.Second, func() {})
	require.NoError(t, err)

	assert.Equal(t, clock.now.Add(90*time.Second), current.FireAt)
	assert.Equal(t, 60*time.Second, current.Remaining(clock.now.Add(30*time.Second)))
	assert.Equal(t, time.Duration(0), current.Remaining(clock.now.Add(2*time.Minute)))
}

func TestRealTimer_CancelledNeverFires(t *testing.T) {
	tm := New()
	fired := make(chan struct{}, 1)

	_, _, err := tm.Schedule(30*time.Millisecond, func() { fired <- struct{}{} })
	require.NoError(t, err)
	_, cancelled := tm.Cancel()
	require.True(t, cancelled)

	select {
	case <-fired:
		t.Fatal("cancelled action fired")
	case <-time.After(120 * time.Millisecond):
	}
}

func TestRealTimer_Fires(t *testing.T) {
	tm := New()
	fired := make(chan struct{}, 1)

	_, _, err := tm.Schedule(10*time.Millisecond, func() { fired <- struct{}{} })
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("action did not fire")
	}
	assert.Equal(t, StateIdle, tm.State())
}

func TestRealTimer_OnlyLatestOfManyFires(t *testing.T) {
	tm := New()
	var runs int32
	var last int32

	for i := int32(1); i <= 5; i++ {
		i := i
		_, _, err := tm.Schedule(20*time.Millisecond, func() {
			atomic.AddInt32(&runs, 1)
			atomic.StoreInt32(&last, i)
		})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.Equal(t, int32(5), atomic.LoadInt32(&last))
}
