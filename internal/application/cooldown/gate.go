// Package cooldown 提供副作用冷却门控
// 图片生成等高成本副作用在固定窗口内对同一主体只允许触发一次
package cooldown

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"sekaichat/pkg/logger"
	"sekaichat/pkg/metrics"
)

// DefaultWindow 图片生成冷却窗口
const DefaultWindow = 20 * time.Second

// Store 冷却时间戳存储
type Store interface {
	// LastTriggered 返回主体最近一次触发时间；从未触发时 ok 为 false
	LastTriggered(ctx context.Context, key string) (at time.Time, ok bool, err error)
	// Trigger 记录主体的新触发时间
	Trigger(ctx context.Context, key string, at time.Time) error
}

// Gate 冷却门
// 语义约定：isOnCooldown(key) == (now - lastTriggered) < window
// 两次几乎同时的触发可能都通过检查，按 last-writer-wins 接受
type Gate struct {
	store  Store
	window time.Duration
}

// NewGate 创建冷却门
func NewGate(store Store, window time.Duration) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{store: store, window: window}
}

// Window 返回窗口时长
func (g *Gate) Window() time.Duration {
	return g.window
}

// IsOnCooldown 检查主体是否处于冷却中
// 存储故障时放行（fail-open），冷却只是成本控制而非正确性约束
func (g *Gate) IsOnCooldown(ctx context.Context, key string, now time.Time) bool {
	last, ok, err := g.store.LastTriggered(ctx, key)
	if err != nil {
		logger.Warn(ctx, "cooldown store read failed, failing open", "key", key, "error", err.Error())
		return false
	}
	if !ok {
		metrics.CooldownChecksTotal.WithLabelValues("pass").Inc()
		return false
	}

	on := now.Sub(last) < g.window
	if on {
		metrics.CooldownChecksTotal.WithLabelValues("blocked").Inc()
	} else {
		metrics.CooldownChecksTotal.WithLabelValues("pass").Inc()
	}
	return on
}

// Remaining 返回剩余冷却秒数（向上取整），未冷却时为 0
func (g *Gate) Remaining(ctx context.Context, key string, now time.Time) int {
	last, ok, err := g.store.LastTriggered(ctx, key)
	if err != nil || !ok {
		return 0
	}

	rem := g.window - now.Sub(last)
	if rem <= 0 {
		return 0
	}
	return int(math.Ceil(rem.Seconds()))
}

// Trigger 记录 now 为新的窗口起点
func (g *Gate) Trigger(ctx context.Context, key string, now time.Time) error {
	return g.store.Trigger(ctx, key, now)
}

// ImageKey 构建图片生成冷却键（按用户维度）
func ImageKey(userID string) string {
	return fmt.Sprintf("cooldown:imggen:%s", userID)
}

// MemoryStore 进程内冷却存储
type MemoryStore struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]time.Time)}
}

// LastTriggered 实现 Store
func (s *MemoryStore) LastTriggered(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.last[key]
	return at, ok, nil
}

// Trigger 实现 Store
func (s *MemoryStore) Trigger(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last[key] = at
	return nil
}
