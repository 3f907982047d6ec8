package watcher

import (
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
)

const (
	viewedSetKey    = "orders:viewed"
	viewHistoryKey  = "orders:view-history"
	viewHistorySize = 50
)

// RedisViewedStore keeps the viewed-order set and a bounded view history in
// redis. The history holds only the most recent entries.
type RedisViewedStore struct {
	rdb *redis.Client
}

func NewRedisViewedStore(rdb *redis.Client) *RedisViewedStore {
	return &RedisViewedStore{rdb: rdb}
}

func (s *RedisViewedStore) IsViewed(ctx context.Context, orderID int) (bool, error) {
	return s.rdb.SIsMember(ctx, viewedSetKey, orderID).Result()
}

func (s *RedisViewedStore) MarkViewed(ctx context.Context, orderID int) error {
	if err := s.rdb.SAdd(ctx, viewedSetKey, orderID).Err(); err != nil {
		return err
	}
	pipe := s.rdb.Pipeline()
	pipe.LPush(ctx, viewHistoryKey, strconv.Itoa(orderID))
	pipe.LTrim(ctx, viewHistoryKey, 0, viewHistorySize-1)
	_, err := pipe.Exec(ctx)
	return err
}

// History returns the most recently viewed order ids, newest first.
func (s *RedisViewedStore) History(ctx context.Context) ([]int, error) {
	raw, err := s.rdb.LRange(ctx, viewHistoryKey, 0, viewHistorySize-1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
