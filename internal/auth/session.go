package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 24 * time.Hour
)

// Sessions tracks live token ids so a token can be revoked before it expires.
type Sessions interface {
	Create(ctx context.Context, id string, userID int64) error
	// GetUserID reports the owner of a live session. A missing session is
	// (0, false, nil); err is set only when the lookup itself failed.
	GetUserID(ctx context.Context, id string) (int64, bool, error)
	Delete(ctx context.Context, id string) error
}

// Store manages sessions in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a new session store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Create registers session id for userID.
func (s *Store) Create(ctx context.Context, id string, userID int64) error {
	return s.rdb.Set(ctx, sessionKeyPrefix+id, strconv.FormatInt(userID, 10), s.ttl).Err()
}

// GetUserID returns the owner of a live session.
func (s *Store) GetUserID(ctx context.Context, id string) (int64, bool, error) {
	v, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get session: %w", err)
	}
	userID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return userID, true, nil
}

// Delete removes a session by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}
