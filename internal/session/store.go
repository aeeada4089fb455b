// Package session implements the per-user coupon redemption conversation:
// a small state machine that collects a coupon code, a wallet address, and a
// payment signature over successive chat messages, plus the session store
// that holds in-flight conversations.
//
// Session state is ephemeral by design. Losing it on process restart is
// acceptable: the user restarts with the start command and nothing durable
// depends on the session.
package session

import (
	"sync"
	"time"
)

// State enumerates the steps of a redemption conversation.
type State int

const (
	// Idle: no redemption in progress.
	Idle State = iota
	// AwaitingCoupon: waiting for the 12-character coupon code.
	AwaitingCoupon
	// AwaitingWallet: waiting for the payer wallet address.
	AwaitingWallet
	// AwaitingSignature: waiting for the payment transaction signature.
	AwaitingSignature
)

// Session is the progress of one user's redemption conversation.
type Session struct {
	State     State
	Code      string
	Wallet    string
	UpdatedAt time.Time
}

// Store holds in-flight sessions keyed by chat identifier. Implementations
// must be safe for concurrent use. Keys are logically partitioned per user,
// so there is no cross-user contention to coordinate.
type Store interface {
	Get(chatID int64) (*Session, bool)
	Put(chatID int64, s *Session)
	Delete(chatID int64)
}

// MemoryStore is the in-process Store used in production and tests. A
// distributed deployment can swap in a shared cache behind the same
// interface.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

// Get returns the session for chatID, if any.
func (m *MemoryStore) Get(chatID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

// Put stores (or replaces) the session for chatID.
func (m *MemoryStore) Put(chatID int64, s *Session) {
	s.UpdatedAt = time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = s
}

// Delete removes the session for chatID.
func (m *MemoryStore) Delete(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}
