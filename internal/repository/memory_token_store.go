package repository

import (
	"context"
	"sync"
	"time"

	"go-auth-service/internal/model"
)

type storedToken struct {
	userID    string
	expiresAt time.Time
}

// MemoryTokenStore tracks outstanding refresh tokens in process memory.
// It backs development and test runs without postgres or redis; tokens do
// not survive a restart.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]storedToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: map[string]storedToken{}}
}

func (s *MemoryTokenStore) Store(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = storedToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *MemoryTokenStore) Validate(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.tokens[token]
	if !exists || !stored.expiresAt.After(time.Now()) {
		return "", model.ErrTokenNotFound
	}
	return stored.userID, nil
}

// Claim invalidates the token and returns its owner; the lock makes the
// check-and-delete atomic, so one of any concurrent claimers wins.
func (s *MemoryTokenStore) Claim(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.tokens[token]
	if !exists || !stored.expiresAt.After(time.Now()) {
		return "", model.ErrTokenNotFound
	}
	delete(s.tokens, token)
	return stored.userID, nil
}

func (s *MemoryTokenStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, token)
	return nil
}

func (s *MemoryTokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, stored := range s.tokens {
		if stored.userID == userID {
			delete(s.tokens, token)
		}
	}
	return nil
}

func (s *MemoryTokenStore) CleanExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	now := time.Now()
	for token, stored := range s.tokens {
		if !stored.expiresAt.After(now) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed, nil
}
