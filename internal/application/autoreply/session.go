package autoreply

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SessionState 生成会话状态
type SessionState string

const (
	SessionPending   SessionState = "pending"
	SessionSucceeded SessionState = "succeeded"
	SessionFailed    SessionState = "failed"
	SessionAborted   SessionState = "aborted"
)

// Session 一次可取消的生成请求单元
// 状态机：pending -> settled(succeeded|failed|aborted)，settle 后不可再变
type Session struct {
	id             string
	conversationID string

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state SessionState
}

// ID 返回会话标识
func (s *Session) ID() string {
	return s.id
}

// ConversationID 返回所属会话
func (s *Session) ConversationID() string {
	return s.conversationID
}

// Context 返回绑定该会话的可取消上下文
// 所有挂在该会话上的网络调用必须使用此上下文
func (s *Session) Context() context.Context {
	return s.ctx
}

// State 返回当前状态
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel 取消会话
// 幂等：对已 settle 的会话调用是 no-op（上下文取消除外，取消总是安全的）
func (s *Session) Cancel() {
	s.settle(SessionAborted)
	s.cancel()
}

// Aborted 会话是否已中止
func (s *Session) Aborted() bool {
	return s.State() == SessionAborted
}

// Succeed 尝试以成功态 settle
// abort-wins：若会话已在结果应用前被中止，返回 false，调用方必须丢弃结果
func (s *Session) Succeed() bool {
	return s.settle(SessionSucceeded)
}

// Fail 尝试以失败态 settle
func (s *Session) Fail() bool {
	return s.settle(SessionFailed)
}

// settle 仅允许从 pending 迁移一次
func (s *Session) settle(target SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionPending {
		return false
	}
	s.state = target
	return true
}

// SessionManager 管理每个会话当前唯一的活动生成会话
// 不变式：任一时刻每个会话至多有一个 pending 的 Session；
// 新建总是先取消旧的（cancel-before-start）
type SessionManager struct {
	mu     sync.Mutex
	active map[string]*Session
}

// NewSessionManager 创建会话管理器
func NewSessionManager() *SessionManager {
	return &SessionManager{active: make(map[string]*Session)}
}

// Start 为指定会话开启新的生成会话
// 若已有 pending 会话，先向其发出中止信号
func (m *SessionManager) Start(parent context.Context, conversationID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.active[conversationID]; prev != nil {
		prev.Cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		id:             uuid.New().String(),
		conversationID: conversationID,
		ctx:            ctx,
		cancel:         cancel,
		state:          SessionPending,
	}
	m.active[conversationID] = s
	return s
}

// Cancel 取消指定会话当前的活动生成会话
func (m *SessionManager) Cancel(conversationID string) bool {
	m.mu.Lock()
	s := m.active[conversationID]
	m.mu.Unlock()

	if s == nil {
		return false
	}
	s.Cancel()
	return true
}

// Active 返回指定会话当前的活动生成会话
func (m *SessionManager) Active(conversationID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[conversationID]
}

// Release 在会话结束后将其从活动表移除
// 仅当它仍是当前活动会话时移除，避免覆盖后续 Start 的结果
func (m *SessionManager) Release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active[s.conversationID] == s {
		delete(m.active, s.conversationID)
	}
}
