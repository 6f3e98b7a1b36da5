// Package service holds the conversation controller and the sessions it drives.
package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/metrics"
)

// ErrSessionNotFound is returned for unknown ids and for sessions owned by
// someone else.
var ErrSessionNotFound = errors.New("session not found")

type sessionEntry struct {
	mu      sync.Mutex
	session *model.Session
}

// SessionStore keeps sessions in memory. Turns on one session are
// serialized; different sessions proceed independently.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	logger   *logger.Logger
}

// NewSessionStore creates an empty store.
func NewSessionStore(log *logger.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		logger:   log,
	}
}

// Create starts a new empty session for owner and returns a snapshot of it.
func (s *SessionStore) Create(owner string) *model.Session {
	now := time.Now()
	sess := &model.Session{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Owner:      owner,
		Transcript: []model.ChatEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &sessionEntry{session: sess}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("owner", owner),
	)

	return sess.Snapshot()
}

// Get returns a snapshot of the session.
func (s *SessionStore) Get(owner, id string) (*model.Session, error) {
	var snap *model.Session
	err := s.With(owner, id, func(sess *model.Session) error {
		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

// With runs fn while holding the session's lock. fn may mutate the session.
func (s *SessionStore) With(owner, id string, fn func(*model.Session) error) error {
	entry, err := s.lookup(owner, id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

// Delete removes the session.
func (s *SessionStore) Delete(owner, id string) error {
	if _, err := s.lookup(owner, id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	return nil
}

// Prune drops sessions idle for longer than maxIdle and returns how many
// were removed. Sessions with a turn in flight are skipped.
func (s *SessionStore) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	removed := 0
	for id, entry := range s.sessions {
		if !entry.mu.TryLock() {
			continue
		}
		if entry.session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
		entry.mu.Unlock()
	}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	if removed > 0 {
		s.logger.Info("pruned idle sessions", zap.Int("removed", removed), zap.Int("remaining", n))
	}
	return removed
}

// Len returns the number of sessions held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) lookup(owner, id string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || entry.session.Owner != owner {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}
