package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"sportsbook-backend/internal/models"
)

// MemoryStore keeps user documents in process. Documents are stored
// serialized so callers never share memory with the store.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string][]byte
	windows map[string]*rateWindow
	now     func() time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string][]byte),
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for rate windows and UpdatedAt.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(models.NewUserDocument(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return ErrAlreadyExists
	}
	s.users[user.Username] = data
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	data, ok := s.users[username]
	s.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	return decodeUser(data)
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	docs := make([][]byte, len(names))
	for i, name := range names {
		docs[i] = s.users[name]
	}
	s.mu.Unlock()

	users := make([]*models.User, 0, len(docs))
	for _, data := range docs {
		user, err := decodeUser(data)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, username string, fn func(*models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}

	user, err := decodeUser(data)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return nil, err
	}

	user.Version++
	user.UpdatedAt = s.now().UTC()

	out, err := json.Marshal(models.NewUserDocument(user))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	s.users[username] = out

	return user, nil
}

func (s *MemoryStore) CheckRateLimit(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := fmt.Sprintf(KeyRateLimit, scope, key)
	now := s.now()

	w, ok := s.windows[k]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		s.windows[k] = w
	}
	w.count++

	return w.count <= limit, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
