// Package session holds authenticated-user sessions, independent of any
// game room. Sessions are created after a successful external auth
// exchange and expire on their own; a background sweep removes stale
// entries without disturbing in-flight lookups.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found or expired")

type Session struct {
	ID            string    `json:"id"`
	OwnerIdentity string    `json:"owner_identity"`
	DisplayName   string    `json:"display_name"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Identity is the result of a successful token verification.
type Identity struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	signingKey []byte
}

func NewStore(signingKey []byte) *Store {
	return &Store{
		sessions:   make(map[string]*Session),
		signingKey: signingKey,
	}
}

func (s *Store) Create(ownerIdentity, displayName string, ttl time.Duration) (Session, error) {
	expiresAt := time.Now().Add(ttl)
	token, err := signToken(s.signingKey, ownerIdentity, displayName, expiresAt)
	if err != nil {
		return Session{}, err
	}

	sess := &Session{
		ID:            uuid.NewString(),
		OwnerIdentity: ownerIdentity,
		DisplayName:   displayName,
		Token:         token,
		ExpiresAt:     expiresAt,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return *sess, nil
}

// Get returns a copy of the session for an id. Expired sessions are
// reported as missing even before the sweeper removes them. Returning a
// value keeps callers insulated from a concurrent Refresh mutating the
// stored entry.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return Session{}, false
	}
	return *sess, true
}

// Valid reports whether a session id refers to a live, unexpired session.
func (s *Store) Valid(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Verify validates a signed token and cross-checks the store, so that an
// explicit logout invalidates the token immediately.
func (s *Store) Verify(token string) (Identity, error) {
	c, err := parseToken(s.signingKey, token)
	if err != nil {
		return Identity{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.Token == token && time.Now().Before(sess.ExpiresAt) {
			return Identity{
				UserID:      c.Subject,
				DisplayName: c.DisplayName,
				ExpiresAt:   sess.ExpiresAt,
			}, nil
		}
	}
	return Identity{}, ErrSessionNotFound
}

// Refresh extends a live session and reissues its token. Like Get, it
// returns a copy.
func (s *Store) Refresh(id string, ttl time.Duration) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return Session{}, ErrSessionNotFound
	}

	expiresAt := time.Now().Add(ttl)
	token, err := signToken(s.signingKey, sess.OwnerIdentity, sess.DisplayName, expiresAt)
	if err != nil {
		return Session{}, err
	}
	sess.ExpiresAt = expiresAt
	sess.Token = token

	return *sess, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Sweep removes every expired session and returns how many were dropped.
// Safe to run concurrently with reads and writes: it only touches entries
// that are already past their expiry.
func (s *Store) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs the expiry sweep on an interval until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Printf("[StartSweeper] removed %d expired sessions", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
