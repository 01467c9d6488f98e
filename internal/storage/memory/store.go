// Package memory provides an in-process UserStore for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/contribution-be/internal/models"
	"github.com/hongminglow/contribution-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*models.User
	nextID int64
	now    func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users: make(map[string]*models.User),
		now:   time.Now,
	}
}

// CreateUser inserts user, failing with storage.ErrAlreadyExists on a duplicate username.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.nextID++
	now := s.now().UTC()
	stored := &models.User{
		ID:            s.nextID,
		Username:      user.Username,
		PasswordHash:  user.PasswordHash,
		Contributions: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.users[user.Username] = stored
	return clone(stored), nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return clone(user), nil
}

// AppendContribution appends to the user's contributions.
func (s *Store) AppendContribution(_ context.Context, username, contribution string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return storage.ErrNotFound
	}
	user.Contributions = append(user.Contributions, contribution)
	user.UpdatedAt = s.now().UTC()
	return nil
}

// ListContributions returns a copy of the user's contributions.
func (s *Store) ListContributions(_ context.Context, username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]string, len(user.Contributions))
	copy(out, user.Contributions)
	return out, nil
}

// ReplacePasswordHash sets newHash if the stored hash still equals currentHash.
func (s *Store) ReplacePasswordHash(_ context.Context, username, currentHash, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok || user.PasswordHash != currentHash {
		return storage.ErrNotFound
	}
	user.PasswordHash = newHash
	user.UpdatedAt = s.now().UTC()
	return nil
}

// SetPasswordHash overwrites the stored hash.
func (s *Store) SetPasswordHash(_ context.Context, username, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return storage.ErrNotFound
	}
	user.PasswordHash = newHash
	user.UpdatedAt = s.now().UTC()
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func clone(u *models.User) models.User {
	out := *u
	out.Contributions = make([]string, len(u.Contributions))
	copy(out.Contributions, u.Contributions)
	return out
}
