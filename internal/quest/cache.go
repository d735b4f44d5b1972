package quest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	todayKeyPrefix = "quest:today:"
	cacheTTL       = 24 * time.Hour
)

// Cache 把当天的任务缓存在Redis中。nil接收者上的方法都是空操作。
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb}
}

func cacheKey(date string) string {
	return todayKeyPrefix + date
}

// Get 读取缓存，未命中时返回 (nil, false, nil)
func (c *Cache) Get(ctx context.Context, date string) (*DailyQuest, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, cacheKey(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var q DailyQuest
	if err := json.Unmarshal(raw, &q); err != nil {
		// 格式不对的缓存直接丢弃
		_ = c.rdb.Del(ctx, cacheKey(date)).Err()
		return nil, false, nil
	}
	return &q, true, nil
}

func (c *Cache) Set(ctx context.Context, q *DailyQuest) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(q.Date), raw, cacheTTL).Err()
}

func (c *Cache) Invalidate(ctx context.Context, date string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, cacheKey(date)).Err()
}
