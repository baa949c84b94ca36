package state

import "time"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a user.
type Session struct {
	State     State
	TempData  map[string]any
	UpdatedAt time.Time
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	// Get returns a snapshot of the user's session; the TempData map is a copy.
	Get(userID int64) Session
	SetTemp(userID int64, key string, value any)
	// UpdateTemp replaces a temp value with fn(old) under the manager lock.
	UpdateTemp(userID int64, key string, fn func(old any, ok bool) any)
	GetTemp(userID int64, key string) (any, bool)
	ClearTemp(userID int64, key string)
	Clear(userID int64)

	// Dialog state
	SetState(userID int64, st State)
	GetState(userID int64) State
	ClearState(userID int64)
	InProgress(userID int64) bool

	// Lifecycle
	Len() int
	Sweep() int
}

// Options bound the memory manager. Zero values disable the matching limit.
type Options struct {
	// IdleTTL evicts sessions untouched for longer than this.
	IdleTTL time.Duration
	// MaxSessions evicts the least recently touched session on overflow.
	MaxSessions int
	// OnEvict observes evictions; reason is "idle" or "capacity".
	OnEvict func(userID int64, reason string)
	// Now overrides the clock in tests.
	Now func() time.Time
}
