package database

import (
	"context"
	"errors"
	"sync"

	"hither-backend/internal/models"
)

var ErrSessionNotFound = errors.New("find session not found")

// SessionStore is where ephemeral find sessions live. Redis in deployment,
// in-memory when REDIS_ADDR is unset (single-instance dev) and in tests.
type SessionStore interface {
	SaveSession(ctx context.Context, s models.FindSession) error
	GetSession(ctx context.Context, id string) (models.FindSession, error)
	DeleteSession(ctx context.Context, id string) error
}

// MemorySessionStore is the fallback SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.FindSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.FindSession)}
}

func (s *MemorySessionStore) SaveSession(_ context.Context, session models.FindSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) GetSession(_ context.Context, id string) (models.FindSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return models.FindSession{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *MemorySessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
