package cooldown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) LastTriggered(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("store down")
}

func (failingStore) Trigger(context.Context, string, time.Time) error {
	return errors.New("store down")
}

func TestGateWindowBoundary(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), 20*time.Second)
	key := ImageKey("user-1")

	start := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, gate.Trigger(ctx, key, start))

	// 窗口内仍在冷却，包括最后一纳秒
	assert.True(t, gate.IsOnCooldown(ctx, key, start))
	assert.True(t, gate.IsOnCooldown(ctx, key, start.Add(20*time.Second-time.Nanosecond)))

	// 恰好到达窗口边界时冷却结束
	assert.False(t, gate.IsOnCooldown(ctx, key, start.Add(20*time.Second)))
	assert.False(t, gate.IsOnCooldown(ctx, key, start.Add(21*time.Second)))
}

func TestGateNeverTriggered(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), 20*time.Second)

	assert.False(t, gate.IsOnCooldown(ctx, ImageKey("user-1"), time.Now()))
	assert.Equal(t, 0, gate.Remaining(ctx, ImageKey("user-1"), time.Now()))
}

func TestGateRemainingCeiling(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), 20*time.Second)
	key := ImageKey("user-1")

	start := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, gate.Trigger(ctx, key, start))

	assert.Equal(t, 20, gate.Remaining(ctx, key, start))
	// 剩 4.2 秒时向上取整到 5
	assert.Equal(t, 5, gate.Remaining(ctx, key, start.Add(15*time.Second+800*time.Millisecond)))
	assert.Equal(t, 1, gate.Remaining(ctx, key, start.Add(19*time.Second+999*time.Millisecond)))
	assert.Equal(t, 0, gate.Remaining(ctx, key, start.Add(20*time.Second)))
}

func TestGateFailOpen(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(failingStore{}, 20*time.Second)
	key := ImageKey("user-1")

	assert.False(t, gate.IsOnCooldown(ctx, key, time.Now()))
	assert.Equal(t, 0, gate.Remaining(ctx, key, time.Now()))
	assert.Error(t, gate.Trigger(ctx, key, time.Now()))
}

func TestGateRetrigger(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), 20*time.Second)
	key := ImageKey("user-1")

	start := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, gate.Trigger(ctx, key, start))

	// 窗口结束后再次触发，开启新的窗口
	next := start.Add(30 * time.Second)
	require.NoError(t, gate.Trigger(ctx, key, next))
	assert.True(t, gate.IsOnCooldown(ctx, key, next.Add(10*time.Second)))
	assert.False(t, gate.IsOnCooldown(ctx, key, next.Add(20*time.Second)))
}

func TestGateDefaultWindow(t *testing.T) {
	gate := NewGate(NewMemoryStore(), 0)
	assert.Equal(t, DefaultWindow, gate.Window())
}
