// Package state tracks the interaction mode of each chat user.
package state

import "sync"

// State is a user's interaction mode.
type State string

// Known modes. The tracker does not enforce this set.
const (
	Default  State = "default"
	MainMenu State = "main_menu"
	ChatMode State = "chat_mode"
)

// Tracker is an in-memory map of user id to State.
// Users that were never set are in Default.
type Tracker struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[int64]State)}
}

// Set records the state for a user.
func (t *Tracker) Set(userID int64, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[userID] = s
}

// Get returns the user's state, or Default if none was set.
func (t *Tracker) Get(userID int64) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.states[userID]; ok {
		return s
	}
	return Default
}

// Len returns the number of users with a recorded state.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.states)
}
