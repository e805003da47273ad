package autoreply

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAbortWins(t *testing.T) {
	m := NewSessionManager()
	s := m.Start(context.Background(), "conv-1")

	// 结果应用前被取消，Succeed 必须失败且结果被丢弃
	s.Cancel()
	assert.False(t, s.Succeed())
	assert.Equal(t, SessionAborted, s.State())
	assert.True(t, s.Aborted())

	// 上下文已被取消
	select {
	case <-s.Context().Done():
	default:
		t.Fatal("session context should be cancelled")
	}
}

func TestSessionSettleOnce(t *testing.T) {
	m := NewSessionManager()
	s := m.Start(context.Background(), "conv-1")

	assert.True(t, s.Succeed())
	assert.False(t, s.Fail())
	assert.Equal(t, SessionSucceeded, s.State())

	// settle 后取消不再改变状态
	s.Cancel()
	assert.Equal(t, SessionSucceeded, s.State())
}

func TestSessionManagerCancelBeforeStart(t *testing.T) {
	m := NewSessionManager()

	first := m.Start(context.Background(), "conv-1")
	second := m.Start(context.Background(), "conv-1")

	// 新建会话先中止旧会话
	assert.True(t, first.Aborted())
	assert.Equal(t, SessionPending, second.State())
	assert.Same(t, second, m.Active("conv-1"))
}

func TestSessionManagerCancel(t *testing.T) {
	m := NewSessionManager()

	assert.False(t, m.Cancel("conv-1"))

	s := m.Start(context.Background(), "conv-1")
	assert.True(t, m.Cancel("conv-1"))
	assert.True(t, s.Aborted())
}

func TestSessionManagerReleaseOnlyCurrent(t *testing.T) {
	m := NewSessionManager()

	first := m.Start(context.Background(), "conv-1")
	second := m.Start(context.Background(), "conv-1")

	// 释放旧会话不影响当前活动会话
	m.Release(first)
	require.Same(t, second, m.Active("conv-1"))

	m.Release(second)
	assert.Nil(t, m.Active("conv-1"))
}

func TestSessionsIndependentAcrossConversations(t *testing.T) {
	m := NewSessionManager()

	a := m.Start(context.Background(), "conv-a")
	b := m.Start(context.Background(), "conv-b")

	m.Cancel("conv-a")
	assert.True(t, a.Aborted())
	assert.Equal(t, SessionPending, b.State())
}
