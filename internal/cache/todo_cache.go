package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	dom "ostadtodo/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList = "todo:list:"
	keyGen  = "todo:gen:"

	// genTTLFactor keeps generation counters well past the lists they guard.
	genTTLFactor = 10
	minGenTTL    = time.Hour
)

// TodoCache caches per-user, per-date task lists in Redis. Every bucket has a
// generation counter bumped on invalidation; a list read from the database is
// only stored if the generation is unchanged since before the read.
type TodoCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	genTTL time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	genTTL := ttl * genTTLFactor
	if genTTL < minGenTTL {
		genTTL = minGenTTL
	}
	return &TodoCache{rdb: rdb, ttl: ttl, genTTL: genTTL}
}

// ListKey is the Redis key holding userID's list for date.
func ListKey(userID int64, date dom.Date) string {
	return keyList + bucket(userID, date)
}

// GenKey is the Redis key holding the generation of userID's list for date.
func GenKey(userID int64, date dom.Date) string {
	return keyGen + bucket(userID, date)
}

func bucket(userID int64, date dom.Date) string {
	return strconv.FormatInt(userID, 10) + ":" + date.String()
}

// GetList returns the cached list or nil on a miss.
func (c *TodoCache) GetList(ctx context.Context, userID int64, date dom.Date) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, ListKey(userID, date)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := make([]dom.Task, 0)
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Generation returns the bucket's current generation, 0 if never invalidated.
func (c *TodoCache) Generation(ctx context.Context, userID int64, date dom.Date) (int64, error) {
	gen, err := c.rdb.Get(ctx, GenKey(userID, date)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// SetList stores the list if the bucket is still at generation gen. It
// reports whether the list was stored.
func (c *TodoCache) SetList(ctx context.Context, userID int64, date dom.Date, gen int64, list []dom.Task) (bool, error) {
	b, err := json.Marshal(list)
	if err != nil {
		return false, err
	}
	genKey := GenKey(userID, date)
	stored := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err == redis.Nil {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ListKey(userID, date), b, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Invalidate drops the cached list for one date bucket and bumps its generation.
func (c *TodoCache) Invalidate(ctx context.Context, userID int64, date dom.Date) error {
	genKey := GenKey(userID, date)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, c.genTTL)
		pipe.Del(ctx, ListKey(userID, date))
		return nil
	})
	return err
}
