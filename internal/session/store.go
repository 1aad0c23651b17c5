package session

import (
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a session ID has no live session.
	ErrNotFound = errors.New("session not found")
	// ErrQuestionNotFound is returned when an answer references an
	// unknown question ID.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAlreadyAnswered is returned when a question already has an
	// answer; at most one answer per question.
	ErrAlreadyAnswered = errors.New("question already answered")
)

// Store owns the session-identity-to-session mapping. A registry mutex
// guards the map; each session carries its own mutex so operations on
// different sessions never contend. Every mutation, including the expiry
// sweep's delete, runs under the session's lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	now func() time.Time
}

type entry struct {
	mu      sync.Mutex
	sess    *Session
	deleted bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Create allocates a fresh session with status Active and returns a snapshot.
func (s *Store) Create(participantName, projectTitle string) *Session {
	sess := &Session{
		ID:              "session_" + newSessionSuffix(),
		ParticipantName: participantName,
		ProjectTitle:    projectTitle,
		StartTime:       s.now().UTC(),
		Status:          StatusActive,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{sess: sess}
	s.mu.Unlock()

	slog.Info("session created", "session", sess.ID, "project", projectTitle)
	return sess.Clone()
}

// newSessionSuffix returns the first 12 hex digits of a fresh UUID.
func newSessionSuffix() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	return e, ok
}

// Update runs fn against the live session under its lock. Mutations made
// by fn are retained. An error from fn aborts nothing already applied;
// fn is expected to mutate only on success paths.
func (s *Store) Update(id string, fn func(*Session) error) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return ErrNotFound
	}
	return fn(e.sess)
}

// View runs fn against the live session under its lock, by convention
// without mutating it.
func (s *Store) View(id string, fn func(*Session) error) error {
	return s.Update(id, fn)
}

// Snapshot returns a deep copy of the session.
func (s *Store) Snapshot(id string) (*Session, error) {
	var snap *Session
	err := s.View(id, func(sess *Session) error {
		snap = sess.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Delete removes the session, waiting out any in-flight operation on it.
func (s *Store) Delete(id string) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return ErrNotFound
	}
	e.deleted = true
	e.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	slog.Info("session deleted", "session", id)
	return nil
}

// IDs returns the IDs of all live sessions.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Expire deletes every session whose start time is older than maxAge.
// It is a coarse sweep meant to be invoked periodically by the caller.
// Returns the number of sessions removed.
func (s *Store) Expire(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	var removed int
	for _, id := range s.IDs() {
		e, ok := s.lookup(id)
		if !ok {
			continue
		}
		e.mu.Lock()
		expired := !e.deleted && e.sess.StartTime.Before(cutoff)
		if expired {
			e.deleted = true
		}
		e.mu.Unlock()

		if expired {
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
			removed++
		}
	}

	if removed > 0 {
		slog.Info("expired idle sessions", "count", removed, "max_age", maxAge)
	}
	return removed
}
