package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// 座位缓存按 epoch 分代，写操作只递增 epoch，旧代的缓存自然过期
const seatAvailabilityEpochKey = "seats:availability:epoch"

func seatAvailabilityKey(epoch int64) string {
	return fmt.Sprintf("seats:availability:%d", epoch)
}

type seatCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// get 读取当前 epoch 的缓存，未命中时调用 load 并写回同一个 epoch。
// epoch 在 load 之前读取，load 期间发生的失效会让这次写回落在旧的 epoch 上
func (c *seatCache) get(ctx context.Context, load func() ([]*domain.SeatAvailability, error)) ([]*domain.SeatAvailability, error) {
	if c.rdb == nil {
		return load()
	}

	epoch, err := c.rdb.Get(ctx, seatAvailabilityEpochKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("读取座位缓存版本失败", "error", err)
		return load()
	}
	key := seatAvailabilityKey(epoch)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []*domain.SeatAvailability
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		slog.Warn("座位缓存格式错误", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("读取座位缓存失败", "error", err)
	}

	availabilities, err := load()
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(availabilities)
	if err == nil {
		err = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	if err != nil {
		slog.Warn("写入座位缓存失败", "error", err)
	}

	return availabilities, nil
}

func (c *seatCache) invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Incr(ctx, seatAvailabilityEpochKey).Err()
}

func (h *Handler) seatCache() *seatCache {
	return &seatCache{
		rdb: h.redisClient,
		ttl: time.Duration(h.config.Redis.SeatCacheTTL) * time.Second,
	}
}

// seatAvailabilities 优先从 redis 读取座位空闲情况，redis 不可用时直接查询数据库
func (h *Handler) seatAvailabilities() ([]*domain.SeatAvailability, error) {
	ctx, cancel := h.redisContext()
	defer cancel()

	return h.seatCache().get(ctx, h.repository.GetSeatAvailabilities)
}

// invalidateSeatCache 在任何可能改变座位占用的写操作提交之后调用
func (h *Handler) invalidateSeatCache() {
	ctx, cancel := h.redisContext()
	defer cancel()

	if err := h.seatCache().invalidate(ctx); err != nil {
		slog.Warn("清除座位缓存失败", "error", err)
	}
}
