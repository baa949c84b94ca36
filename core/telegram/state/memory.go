package state

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entry struct {
	userID  int64
	session *Session
	// touched is the UnixNano of the last access by the manager clock.
	touched atomic.Int64
	// dropped marks an explicit Clear, which is not an eviction.
	dropped atomic.Bool
}

// memoryManager keeps sessions in an expirable LRU. The LRU enforces the
// capacity bound and purges sessions nobody touches again; lookups also
// check the idle TTL against opts.Now so that expiry follows the manager
// clock.
type memoryManager struct {
	mu    sync.Mutex
	cache *expirable.LRU[int64, *entry]
	opts  Options
}

// NewMemoryManager constructs an in-memory Manager bounded by opts.
func NewMemoryManager(opts Options) Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &memoryManager{opts: opts}
	m.cache = expirable.NewLRU[int64, *entry](max(opts.MaxSessions, 0), m.onEvict, opts.IdleTTL)
	return m
}

// onEvict runs inside the LRU, either under one of our calls or from its
// background purge.
func (m *memoryManager) onEvict(userID int64, e *entry) {
	if e.dropped.Load() || m.opts.OnEvict == nil {
		return
	}
	reason := "capacity"
	if m.idleSince(e, m.opts.Now()) {
		reason = "idle"
	}
	m.opts.OnEvict(userID, reason)
}

func (m *memoryManager) idleSince(e *entry, now time.Time) bool {
	return m.opts.IdleTTL > 0 && now.Sub(time.Unix(0, e.touched.Load())) > m.opts.IdleTTL
}

func (m *memoryManager) touch(e *entry, now time.Time) {
	e.touched.Store(now.UnixNano())
	e.session.UpdatedAt = now
	// Re-adding refreshes the LRU position and expiry.
	m.cache.Add(e.userID, e)
}

// lookup returns a live session and refreshes it. Expired sessions are
// evicted on sight. Callers must hold m.mu.
func (m *memoryManager) lookup(userID int64) (*Session, bool) {
	e, ok := m.cache.Peek(userID)
	if !ok {
		return nil, false
	}
	now := m.opts.Now()
	if m.idleSince(e, now) {
		m.cache.Remove(userID)
		return nil, false
	}
	m.touch(e, now)
	return e.session, true
}

// ensure returns the user's session, creating it when absent. Callers must hold m.mu.
func (m *memoryManager) ensure(userID int64) *Session {
	if sess, ok := m.lookup(userID); ok {
		return sess
	}
	e := &entry{userID: userID, session: &Session{State: StateIdle, TempData: make(map[string]any)}}
	m.touch(e, m.opts.Now())
	return e.session
}

// Get returns a snapshot of the user's session or a fresh idle session.
func (m *memoryManager) Get(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.lookup(userID); ok {
		return Session{State: sess.State, TempData: maps.Clone(sess.TempData), UpdatedAt: sess.UpdatedAt}
	}
	return Session{State: StateIdle, TempData: make(map[string]any)}
}

// SetTemp stores a temporary key/value pair for the given user session.
func (m *memoryManager) SetTemp(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(userID).TempData[key] = value
}

// UpdateTemp applies fn to the current value of key and stores the result.
// A nil result removes the key.
func (m *memoryManager) UpdateTemp(userID int64, key string, fn func(old any, ok bool) any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.ensure(userID)
	old, ok := sess.TempData[key]
	next := fn(old, ok)
	if next == nil {
		delete(sess.TempData, key)
		return
	}
	sess.TempData[key] = next
}

// GetTemp retrieves a temporary value by key for the given user session.
func (m *memoryManager) GetTemp(userID int64, key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.lookup(userID)
	if !ok {
		return nil, false
	}
	val, ok := sess.TempData[key]
	return val, ok
}

// ClearTemp removes a temporary key/value pair for the given user session.
func (m *memoryManager) ClearTemp(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.lookup(userID); ok {
		delete(sess.TempData, key)
	}
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.cache.Peek(userID); ok {
		e.dropped.Store(true)
		m.cache.Remove(userID)
	}
}

// SetState sets the FSM state for the given user.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(userID).State = st
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.lookup(userID); ok {
		return sess.State
	}
	return StateIdle
}

// ClearState resets the FSM state to idle for a user without removing session data.
func (m *memoryManager) ClearState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.lookup(userID); ok {
		sess.State = StateIdle
	}
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// Len reports the number of sessions held, including expired ones not yet swept.
func (m *memoryManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}

// Sweep evicts every idle-expired session and returns how many were removed.
func (m *memoryManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.IdleTTL <= 0 {
		return 0
	}
	now := m.opts.Now()
	removed := 0
	// Keys run from the least recently touched; stop at the first live one.
	for _, id := range m.cache.Keys() {
		e, ok := m.cache.Peek(id)
		if !ok {
			continue
		}
		if !m.idleSince(e, now) {
			break
		}
		m.cache.Remove(id)
		removed++
	}
	return removed
}
