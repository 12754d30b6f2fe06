package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flashdeckhq/flashdeck/internal/models"
)

// InMemoryStore keeps tokens and users in maps behind a mutex. Used in
// tests and local development without a database.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]models.APIToken
	users  map[uuid.UUID]models.User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[uuid.UUID]models.APIToken),
		users:  make(map[uuid.UUID]models.User),
	}
}

func (s *InMemoryStore) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *InMemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *InMemoryStore) Insert(ctx context.Context, t *models.APIToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID] = *t
	return nil
}

func (s *InMemoryStore) InsertIfUnderLimit(ctx context.Context, t *models.APIToken, max int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tok := range s.tokens {
		if tok.UserID == t.UserID && (tok.ExpiresAt == nil || tok.ExpiresAt.After(now)) {
			n++
		}
	}
	if n >= max {
		return false, nil
	}
	s.tokens[t.ID] = *t
	return true, nil
}

func (s *InMemoryStore) FindByHash(ctx context.Context, hash string) (*models.APIToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.TokenHash == hash {
			tok := t
			return &tok, nil
		}
	}
	return nil, ErrTokenNotFound
}

func (s *InMemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.APIToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &t, nil
}

func (s *InMemoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.APIToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID && (t.ExpiresAt == nil || t.ExpiresAt.After(now)) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return ErrTokenNotFound
	}
	t.LastUsedAt = &at
	s.tokens[id] = t
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[id]; !ok {
		return ErrTokenNotFound
	}
	delete(s.tokens, id)
	return nil
}

func (s *InMemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.tokens {
		if t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}
