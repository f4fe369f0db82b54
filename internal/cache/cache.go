// Package cache holds short-lived login challenges outside the document store.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrChallengeNotFound = errors.New("challenge not found")

// Challenge is a pending one-time login code. Only the bcrypt hash of the code
// is kept.
type Challenge struct {
	UserID    string    `json:"user_id"`
	CodeHash  string    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

type ChallengeStore interface {
	Put(ctx context.Context, key string, challenge Challenge) error
	Get(ctx context.Context, key string) (Challenge, error)
	Delete(ctx context.Context, key string) error
}

type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	now        func() time.Time
}

func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]Challenge),
		now:        time.Now,
	}
}

func (s *MemoryChallengeStore) Put(_ context.Context, key string, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[key] = challenge
	return nil
}

func (s *MemoryChallengeStore) Get(_ context.Context, key string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[key]
	if !ok {
		return Challenge{}, ErrChallengeNotFound
	}
	if challenge.Expired(s.now()) {
		delete(s.challenges, key)
		return Challenge{}, ErrChallengeNotFound
	}
	return challenge, nil
}

func (s *MemoryChallengeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, key)
	return nil
}
