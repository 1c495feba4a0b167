package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"sportsbook-backend/internal/config"
	"sportsbook-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, now: time.Now}, nil
}

func userKey(username string) string {
	return fmt.Sprintf(KeyUser, username)
}

func (s *RedisStore) CreateUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(models.NewUserDocument(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	created, err := s.client.SetNX(ctx, userKey(user.Username), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		return ErrAlreadyExists
	}

	if err := s.client.SAdd(ctx, KeyUserIndex, user.Username).Err(); err != nil {
		return fmt.Errorf("failed to index user: %w", err)
	}

	return nil
}

func (s *RedisStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	data, err := s.client.Get(ctx, userKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return decodeUser(data)
}

func (s *RedisStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	usernames, err := s.client.SMembers(ctx, KeyUserIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(usernames) == 0 {
		return []*models.User{}, nil
	}
	sort.Strings(usernames)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(usernames))
	for i, username := range usernames {
		cmds[i] = pipe.Get(ctx, userKey(username))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	users := make([]*models.User, 0, len(cmds))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}

		user, err := decodeUser(data)
		if err != nil {
			continue
		}
		users = append(users, user)
	}

	return users, nil
}

// UpdateUser runs fn inside WATCH/MULTI on the user key. A write that loses
// the race is retried against the fresh document.
func (s *RedisStore) UpdateUser(ctx context.Context, username string, fn func(*models.User) error) (*models.User, error) {
	key := userKey(username)
	var updated *models.User

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		user, err := decodeUser(data)
		if err != nil {
			return err
		}

		if err := fn(user); err != nil {
			return err
		}

		user.Version++
		user.UpdatedAt = s.now().UTC()

		out, err := json.Marshal(models.NewUserDocument(user))
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}

		updated = user
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}

	return nil, ErrConflict
}

// CheckRateLimit is a fixed-window counter keyed by scope and caller.
func (s *RedisStore) CheckRateLimit(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, error) {
	k := fmt.Sprintf(KeyRateLimit, scope, key)

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, k, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// DeleteUser exists for test cleanup; no route exposes it.
func (s *RedisStore) DeleteUser(ctx context.Context, username string) error {
	if err := s.client.Del(ctx, userKey(username)).Err(); err != nil {
		return err
	}
	return s.client.SRem(ctx, KeyUserIndex, username).Err()
}

func (s *RedisStore) ClearRateLimit(ctx context.Context, scope, key string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, scope, key)).Err()
}

func decodeUser(data []byte) (*models.User, error) {
	var doc models.UserDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return doc.ToUser(), nil
}
