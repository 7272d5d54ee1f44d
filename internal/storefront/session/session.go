// Package session enforces the storefront's client-side session policy: a
// rolling inactivity window over the locally cached identity, independent of
// whatever expiry the bearer token itself carries. Either one failing ends
// the session.
package session

import (
	"sync"
	"time"
)

// State is the session lifecycle state.
type State int

const (
	// Anonymous means no identity is cached: never logged in, or logged
	// out explicitly, or the server rejected the token.
	Anonymous State = iota

	// Active means a cached identity exists and the rolling window has not
	// elapsed since the last tracked activity.
	Active

	// Expired means the rolling window elapsed without activity. Like
	// Anonymous it is terminal until a new login or registration.
	Expired
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "anonymous"
	}
}

// DefaultWindow is the rolling inactivity window.
const DefaultWindow = 30 * time.Minute

// Manager runs the session state machine. A single deferred timer watches
// for expiry; it is always cancelled and rescheduled together so two timers
// are never live at once (which would fire duplicate expiry notices).
type Manager struct {
	mu           sync.Mutex
	state        State
	window       time.Duration
	lastActivity time.Time
	timer        *time.Timer

	// onExpire fires once per Active→Expired transition, outside the lock.
	onExpire func()

	// now is the clock, overridable in tests.
	now func() time.Time
}

// NewManager creates a session manager in the Anonymous state. onExpire may
// be nil; window ≤ 0 falls back to DefaultWindow.
func NewManager(window time.Duration, onExpire func()) *Manager {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Manager{
		state:    Anonymous,
		window:   window,
		onExpire: onExpire,
		now:      time.Now,
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastActivity returns the last tracked activity time, for persistence.
// Zero when the session is not Active.
func (m *Manager) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Active {
		return time.Time{}
	}
	return m.lastActivity
}

// Activate starts (or restarts) an Active session after a successful login
// or registration. Any earlier state is discarded.
func (m *Manager) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Active
	m.lastActivity = m.now()
	m.schedule()
}

// CheckOnStart applies the rolling window to a persisted last-activity time
// at application start. A zero time means no cached session; a stale one
// transitions straight to Expired (firing the expiry notice so local state
// gets cleared); a fresh one resumes the Active session.
func (m *Manager) CheckOnStart(lastActivity time.Time) State {
	m.mu.Lock()

	if lastActivity.IsZero() {
		m.state = Anonymous
		m.mu.Unlock()
		return Anonymous
	}

	if m.now().Sub(lastActivity) > m.window {
		m.state = Expired
		m.cancelTimer()
		m.mu.Unlock()
		if m.onExpire != nil {
			m.onExpire()
		}
		return Expired
	}

	m.state = Active
	m.lastActivity = lastActivity
	m.schedule()
	m.mu.Unlock()
	return Active
}

// Touch records user activity, resetting the rolling window. It is a no-op
// unless the session is Active.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Active {
		return
	}
	m.lastActivity = m.now()
	m.schedule()
}

// Deactivate ends the session without an expiry notice: explicit logout, or
// the server rejected the token on an authenticated call.
func (m *Manager) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Anonymous
	m.lastActivity = time.Time{}
	m.cancelTimer()
}

// expireCheck runs when the idle timer fires. Activity may have arrived
// between scheduling and firing, so the deadline is re-derived from
// lastActivity; a fresh session just reschedules.
func (m *Manager) expireCheck() {
	m.mu.Lock()

	if m.state != Active {
		m.mu.Unlock()
		return
	}

	remaining := m.window - m.now().Sub(m.lastActivity)
	if remaining > 0 {
		m.scheduleIn(remaining)
		m.mu.Unlock()
		return
	}

	m.state = Expired
	m.cancelTimer()
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire()
	}
}

// schedule arms the idle timer for a full window from lastActivity.
// Callers must hold m.mu.
func (m *Manager) schedule() {
	m.scheduleIn(m.window - m.now().Sub(m.lastActivity))
}

// scheduleIn cancels any live timer and arms a new one. Callers must hold m.mu.
func (m *Manager) scheduleIn(d time.Duration) {
	m.cancelTimer()
	if d < 0 {
		d = 0
	}
	m.timer = time.AfterFunc(d, m.expireCheck)
}

// cancelTimer stops the live timer, if any. Callers must hold m.mu.
func (m *Manager) cancelTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
