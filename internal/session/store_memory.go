package session

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory [Store] implementation.
//
// Suitable for tests and cookie-only deployments where durability across
// restarts is not required.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]AuthState
	tokens map[string]TokenPair
	now    func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]AuthState),
		tokens: make(map[string]TokenPair),
		now:    time.Now,
	}
}

// SaveState records a pending authorization state.
func (s *MemoryStore) SaveState(state AuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.Value] = state
	return nil
}

// TakeState consumes and returns the state with the given value.
//
// Expired states are removed and reported as missing.
func (s *MemoryStore) TakeState(value string) (AuthState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[value]
	if !ok {
		return AuthState{}, false, nil
	}

	delete(s.states, value)

	if state.Expired(s.now()) {
		return AuthState{}, false, nil
	}

	return state, true, nil
}

// SaveTokens stores the token pair for the given session.
func (s *MemoryStore) SaveTokens(sessionID string, pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[sessionID] = pair
	return nil
}

// Tokens returns the token pair for the given session, if one exists.
func (s *MemoryStore) Tokens(sessionID string) (TokenPair, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pair, ok := s.tokens[sessionID]
	return pair, ok, nil
}

// DeleteTokens removes the token pair for the given session.
func (s *MemoryStore) DeleteTokens(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, sessionID)
	return nil
}
