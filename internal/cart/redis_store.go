package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// cart:{session_id} -> hash product_id -> qty
	keyCart = "cart:%s"

	//放置カートの寿命
	cartTTL = 14 * 24 * time.Hour
)

// RedisStore はセッションカートのRedis実装。
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf(keyCart, sessionID)
}

func (s *RedisStore) Snapshot(ctx context.Context, sessionID string) ([]Line, error) {
	data, err := s.rdb.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(data))
	for field, value := range data {
		pid, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseInt(value, 10, 64)
		if err != nil || qty <= 0 {
			continue
		}
		lines = append(lines, Line{ProductID: pid, Qty: qty})
	}

	//HGetAllの順序は不定なので並べ直す
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (s *RedisStore) Add(ctx context.Context, sessionID string, productID int64, qty int64) error {
	key := cartKey(sessionID)
	field := strconv.FormatInt(productID, 10)

	newQty, err := s.rdb.HIncrBy(ctx, key, field, qty).Result()
	if err != nil {
		return err
	}
	if newQty <= 0 {
		return s.rdb.HDel(ctx, key, field).Err()
	}
	return s.rdb.Expire(ctx, key, cartTTL).Err()
}

func (s *RedisStore) SetQty(ctx context.Context, sessionID string, productID int64, qty int64) error {
	key := cartKey(sessionID)
	field := strconv.FormatInt(productID, 10)

	if qty <= 0 {
		return s.rdb.HDel(ctx, key, field).Err()
	}
	if err := s.rdb.HSet(ctx, key, field, qty).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, cartTTL).Err()
}

func (s *RedisStore) Remove(ctx context.Context, sessionID string, productID int64) error {
	return s.rdb.HDel(ctx, cartKey(sessionID), strconv.FormatInt(productID, 10)).Err()
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, cartKey(sessionID)).Err()
}
