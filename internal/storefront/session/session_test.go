package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestManager(window time.Duration, onExpire func()) (*Manager, *fakeClock) {
	clock := &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(window, onExpire)
	m.now = clock.now
	return m, clock
}

func TestStartsAnonymous(t *testing.T) {
	m, _ := newTestManager(30*time.Minute, nil)
	assert.Equal(t, Anonymous, m.State())
	assert.True(t, m.LastActivity().IsZero())
}

func TestActivateThenTouchKeepsActive(t *testing.T) {
	m, clock := newTestManager(30*time.Minute, nil)

	m.Activate()
	assert.Equal(t, Active, m.State())

	// Activity every 20 minutes stays inside the 30-minute rolling window.
	for i := 0; i < 5; i++ {
		clock.advance(20 * time.Minute)
		m.Touch()
	}
	assert.Equal(t, Active, m.State())
	assert.Equal(t, clock.current, m.LastActivity())
}

func TestCheckOnStart_FreshSessionResumes(t *testing.T) {
	m, clock := newTestManager(30*time.Minute, nil)

	last := clock.current.Add(-10 * time.Minute)
	assert.Equal(t, Active, m.CheckOnStart(last))
	assert.Equal(t, Active, m.State())
	assert.Equal(t, last, m.LastActivity())
}

func TestCheckOnStart_StaleSessionExpiresAndNotifies(t *testing.T) {
	var notices int32
	m, clock := newTestManager(30*time.Minute, func() { atomic.AddInt32(&notices, 1) })

	// Created at t0, no activity, checked at t0+31min.
	last := clock.current
	clock.advance(31 * time.Minute)

	assert.Equal(t, Expired, m.CheckOnStart(last))
	assert.Equal(t, Expired, m.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&notices))
}

func TestCheckOnStart_NoPersistedSession(t *testing.T) {
	var notices int32
	m, _ := newTestManager(30*time.Minute, func() { atomic.AddInt32(&notices, 1) })

	assert.Equal(t, Anonymous, m.CheckOnStart(time.Time{}))
	assert.Equal(t, int32(0), atomic.LoadInt32(&notices), "no notice without a session")
}

func TestDeactivateIsSilent(t *testing.T) {
	var notices int32
	m, _ := newTestManager(30*time.Minute, func() { atomic.AddInt32(&notices, 1) })

	m.Activate()
	m.Deactivate()

	assert.Equal(t, Anonymous, m.State())
	assert.Equal(t, int32(0), atomic.LoadInt32(&notices), "logout must not fire the expiry notice")
}

func TestTouchIgnoredWhenNotActive(t *testing.T) {
	m, clock := newTestManager(30*time.Minute, nil)

	m.Touch()
	assert.Equal(t, Anonymous, m.State())

	m.Activate()
	m.Deactivate()
	clock.advance(time.Minute)
	m.Touch()
	assert.Equal(t, Anonymous, m.State())
}

func TestIdleTimerFiresExactlyOnce(t *testing.T) {
	// Real timers here: a short window exercises the cancel+reschedule
	// invariant end to end.
	var notices int32
	m := NewManager(40*time.Millisecond, func() { atomic.AddInt32(&notices, 1) })

	m.Activate()
	// Touches rearm the timer; none of them may leave a stray one behind.
	for i := 0; i < 3; i++ {
		time.Sleep(10 * time.Millisecond)
		m.Touch()
	}

	require.Eventually(t, func() bool {
		return m.State() == Expired
	}, time.Second, 5*time.Millisecond)

	// Allow any stray timer to fire before counting.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&notices))
}

func TestActivateAfterExpiryRestartsCycle(t *testing.T) {
	m, clock := newTestManager(30*time.Minute, nil)

	m.Activate()
	last := m.LastActivity()
	clock.advance(31 * time.Minute)
	assert.Equal(t, Expired, m.CheckOnStart(last))

	m.Activate()
	assert.Equal(t, Active, m.State())
}
