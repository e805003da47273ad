package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CooldownStore 冷却时间戳存储（毫秒时间戳，多实例间共享）
// 键按 2 倍窗口设置 TTL 自动清理，窗口判定始终由上层比较时间完成
type CooldownStore struct {
	client *Client
	ttl    time.Duration
}

// NewCooldownStore 创建冷却存储
func NewCooldownStore(client *Client, window time.Duration) *CooldownStore {
	return &CooldownStore{
		client: client,
		ttl:    window * 2,
	}
}

// LastTriggered 返回上次触发时刻，键不存在时 ok 为 false
func (s *CooldownStore) LastTriggered(ctx context.Context, key string) (time.Time, bool, error) {
	ctx, span := tracer.Start(ctx, "cooldown.LastTriggered",
		trace.WithAttributes(attribute.String("cooldown.key", key)))
	defer span.End()

	val, err := s.client.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, false, nil
		}
		span.RecordError(err)
		return time.Time{}, false, fmt.Errorf("failed to get cooldown timestamp: %w", err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		span.RecordError(err)
		return time.Time{}, false, fmt.Errorf("invalid cooldown timestamp %q: %w", val, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Trigger 记录触发时刻（后写覆盖）
func (s *CooldownStore) Trigger(ctx context.Context, key string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "cooldown.Trigger",
		trace.WithAttributes(attribute.String("cooldown.key", key)))
	defer span.End()

	if err := s.client.rdb.Set(ctx, key, at.UnixMilli(), s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set cooldown timestamp: %w", err)
	}
	return nil
}
