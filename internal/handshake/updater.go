package handshake

import (
	"encoding/json"
	"sync"
)

// SessionContext is the shared session state updated after a handshake.
type SessionContext struct {
	IsLoggedIn bool            `json:"isLoggedIn"`
	User       json.RawMessage `json:"user"`
}

// Updater publishes a successful handshake into the shared session state. The
// caller picks the variant when wiring the client: ReplaceUpdater for state
// holders that take a whole value, FieldUpdater for key/value setters.
type Updater interface {
	publish(user json.RawMessage)
}

// ReplaceUpdater receives the complete new session state.
type ReplaceUpdater func(next SessionContext)

func (u ReplaceUpdater) publish(user json.RawMessage) {
	u(SessionContext{IsLoggedIn: true, User: user})
}

// FieldUpdater receives one field at a time: "user", then "isLoggedIn".
type FieldUpdater func(key string, value any)

func (u FieldUpdater) publish(user json.RawMessage) {
	u("user", user)
	u("isLoggedIn", true)
}

// SessionValue is a concurrency-safe holder for a SessionContext.
type SessionValue struct {
	mu  sync.RWMutex
	ctx SessionContext
}

// Set replaces the held state. It has the ReplaceUpdater signature.
func (v *SessionValue) Set(next SessionContext) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctx = next
}

func (v *SessionValue) Get() SessionContext {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ctx
}
