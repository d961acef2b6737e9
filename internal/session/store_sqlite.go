package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore is a [Store] implementation backed by the sessions database.
//
// Tables are created by the embedded migrations (see internal/shared).
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a [SQLiteStore] with the given database connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// SaveState records a pending authorization state.
func (s *SQLiteStore) SaveState(state AuthState) error {
	query := `
		INSERT OR REPLACE INTO auth_states (value, created_at, expires_at) VALUES (?, ?, ?)
	`

	if _, err := s.db.Exec(query, state.Value, state.CreatedAt, state.ExpiresAt); err != nil {
		return fmt.Errorf("failed to insert auth state: %w", err)
	}

	return nil
}

// TakeState consumes and returns the state with the given value.
func (s *SQLiteStore) TakeState(value string) (AuthState, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return AuthState{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var state AuthState
	query := `SELECT value, created_at, expires_at FROM auth_states WHERE value = ?`
	err = tx.QueryRow(query, value).Scan(&state.Value, &state.CreatedAt, &state.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AuthState{}, false, nil
	}
	if err != nil {
		return AuthState{}, false, fmt.Errorf("failed to query auth state: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM auth_states WHERE value = ?`, value); err != nil {
		return AuthState{}, false, fmt.Errorf("failed to consume auth state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return AuthState{}, false, fmt.Errorf("failed to commit: %w", err)
	}

	if state.Expired(s.now()) {
		return AuthState{}, false, nil
	}

	return state, true, nil
}

// SaveTokens stores the token pair for the given session.
func (s *SQLiteStore) SaveTokens(sessionID string, pair TokenPair) error {
	query := `
		INSERT OR REPLACE INTO token_pairs (session_id, access_token, refresh_token, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := s.db.Exec(query, sessionID, pair.AccessToken, pair.RefreshToken, pair.Expiry, s.now()); err != nil {
		return fmt.Errorf("failed to insert token pair: %w", err)
	}

	return nil
}

// Tokens returns the token pair for the given session, if one exists.
func (s *SQLiteStore) Tokens(sessionID string) (TokenPair, bool, error) {
	var pair TokenPair
	query := `SELECT access_token, refresh_token, expiry FROM token_pairs WHERE session_id = ?`

	err := s.db.QueryRow(query, sessionID).Scan(&pair.AccessToken, &pair.RefreshToken, &pair.Expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenPair{}, false, nil
	}
	if err != nil {
		return TokenPair{}, false, fmt.Errorf("failed to query token pair: %w", err)
	}

	return pair, true, nil
}

// DeleteTokens removes the token pair for the given session.
func (s *SQLiteStore) DeleteTokens(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM token_pairs WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete token pair: %w", err)
	}

	return nil
}

// PruneStates removes expired authorization states.
//
// Called opportunistically by the setup command; correctness does not depend
// on it since TakeState rejects expired rows.
func (s *SQLiteStore) PruneStates() error {
	if _, err := s.db.Exec(`DELETE FROM auth_states WHERE expires_at <= ?`, s.now()); err != nil {
		return fmt.Errorf("failed to prune auth states: %w", err)
	}

	return nil
}
