package autoreply

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sekaichat/internal/application/affection"
	"sekaichat/internal/application/cooldown"
	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	apperrors "sekaichat/pkg/errors"
	"sekaichat/pkg/logger"
	"sekaichat/pkg/metrics"
)

// RunState 自动回复运行状态
type RunState string

const (
	RunStateIdle       RunState = "idle"
	RunStateSelecting  RunState = "selecting"
	RunStateGenerating RunState = "generating"
	RunStateApplying   RunState = "applying"
	RunStateAborted    RunState = "aborted"
)

// 生成失败时追加的用户可见提示，单次运行最多出现一条
const generationFailedNotice = "回复生成失败，本轮自动回复已结束。"

// Options 循环控制参数
type Options struct {
	// MaxSequenceLimit 连续响应轮数的硬上限
	MaxSequenceLimit int
	// IterationDelay 相邻两轮之间的最小间隔
	IterationDelay time.Duration
}

// run 一次自动回复运行
// 每个会话同一时刻至多存在一个，注册表即重入保护
type run struct {
	conversationID string
	ctx            context.Context
	cancel         context.CancelFunc
	aborted        atomic.Bool
	state          atomic.Value // RunState
}

func (r *run) setState(s RunState) {
	r.state.Store(s)
}

func (r *run) abort() {
	r.aborted.Store(true)
	r.setState(RunStateAborted)
	r.cancel()
}

// Controller 自动回复循环控制器
// 状态机：Idle -> Selecting -> Generating -> Applying -> (Selecting | Idle)，
// 任何非 Idle 状态都可进入终态 Aborted
type Controller struct {
	opts Options

	selector  SpeakerSelector
	generator Generator
	store     MessageStore
	gate      *cooldown.Gate
	sessions  *SessionManager

	conversations repository.ConversationRepository
	participants  repository.ParticipantRepository
	characters    repository.CharacterRepository
	users         repository.UserRepository
	affection     *affection.Engine

	mu   sync.Mutex
	runs map[string]*run
}

// NewController 创建循环控制器
func NewController(
	opts Options,
	selector SpeakerSelector,
	generator Generator,
	store MessageStore,
	gate *cooldown.Gate,
	sessions *SessionManager,
	conversations repository.ConversationRepository,
	participants repository.ParticipantRepository,
	characters repository.CharacterRepository,
	users repository.UserRepository,
	affectionEngine *affection.Engine,
) *Controller {
	if opts.MaxSequenceLimit <= 0 {
		opts.MaxSequenceLimit = 5
	}
	return &Controller{
		opts:          opts,
		selector:      selector,
		generator:     generator,
		store:         store,
		gate:          gate,
		sessions:      sessions,
		conversations: conversations,
		participants:  participants,
		characters:    characters,
		users:         users,
		affection:     affectionEngine,
		runs:          make(map[string]*run),
	}
}

// Trigger 触发一次自动回复运行
// 仅当会话开启自动回复且参与者非空时启动；已有运行在进行时为 no-op。
// 返回是否真正启动了新的运行
func (c *Controller) Trigger(ctx context.Context, conversationID string) (bool, error) {
	conv, err := c.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return false, err
	}
	if conv == nil {
		return false, apperrors.ErrConversationNotFound
	}
	if !conv.AutoReplyEnabled {
		return false, nil
	}

	parts, err := c.participants.ListByConversation(ctx, conversationID)
	if err != nil {
		return false, err
	}
	if len(parts) == 0 {
		return false, nil
	}

	c.mu.Lock()
	if _, exists := c.runs[conversationID]; exists {
		// 重入保护：双击或并发触发时第二次为 no-op
		c.mu.Unlock()
		return false, nil
	}

	// 运行寿命超出触发它的请求，脱离请求上下文的取消链
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{conversationID: conversationID, ctx: runCtx, cancel: cancel}
	r.setState(RunStateSelecting)
	c.runs[conversationID] = r
	c.mu.Unlock()

	metrics.ActiveRuns.Inc()
	go c.loop(r, conv)
	return true, nil
}

// State 返回会话当前的运行状态，无运行时为 Idle
func (c *Controller) State(conversationID string) RunState {
	c.mu.Lock()
	r := c.runs[conversationID]
	c.mu.Unlock()

	if r == nil {
		return RunStateIdle
	}
	if s, ok := r.state.Load().(RunState); ok {
		return s
	}
	return RunStateIdle
}

// Cancel 中止会话内进行中的运行与生成会话
// 已应用的部分结果保持不变（不回滚）
func (c *Controller) Cancel(conversationID string) bool {
	c.mu.Lock()
	r := c.runs[conversationID]
	c.mu.Unlock()

	cancelled := c.sessions.Cancel(conversationID)
	if r != nil {
		r.abort()
		return true
	}
	return cancelled
}

// loop 运行主循环
// 纯迭代计数驱动，上界在进入时即确定，选择器不可信时最坏也只跑 maxSeq 轮
func (c *Controller) loop(r *run, conv *entity.Conversation) {
	status := "completed"
	iterations := 0

	defer func() {
		c.mu.Lock()
		delete(c.runs, r.conversationID)
		c.mu.Unlock()

		r.cancel()
		metrics.ActiveRuns.Dec()
		metrics.AutoReplyRunsTotal.WithLabelValues(status).Inc()
		metrics.AutoReplyIterations.WithLabelValues(status).Observe(float64(iterations))
		logger.Info(r.ctx, "auto reply run finished",
			"conversation_id", r.conversationID,
			"status", status,
			"iterations", iterations,
		)
	}()

	maxSeq := conv.EffectiveMaxSequence(c.opts.MaxSequenceLimit)

	for seq := 1; seq <= maxSeq; seq++ {
		if seq > 1 && c.opts.IterationDelay > 0 {
			// 迭代间最小间隔，避免连续打击生成服务
			select {
			case <-time.After(c.opts.IterationDelay):
			case <-r.ctx.Done():
				status = "aborted"
				return
			}
		}
		if r.aborted.Load() {
			status = "aborted"
			return
		}

		r.setState(RunStateSelecting)
		speaker, err := c.selector.SelectSpeaker(r.ctx, conv.ID)
		if err != nil {
			if r.aborted.Load() || errors.Is(err, context.Canceled) {
				status = "aborted"
				return
			}
			c.surfaceFailure(r.ctx, conv.ID, err)
			status = "failed"
			return
		}
		if speaker == nil {
			// 无人发言：运行正常结束，不是错误
			status = "no_speaker"
			return
		}

		r.setState(RunStateGenerating)
		msg, err := c.generateOnce(r.ctx, conv, speaker.ID, seq)
		if err != nil {
			if errors.Is(err, errSessionAborted) || r.aborted.Load() || errors.Is(err, context.Canceled) {
				// 我方取消：静默结束，不向用户暴露错误
				status = "aborted"
				return
			}
			c.surfaceFailure(r.ctx, conv.ID, err)
			status = "failed"
			return
		}
		if msg != nil {
			iterations++
		}
	}
}

// errSessionAborted 生成会话在结果应用前被中止
var errSessionAborted = errors.New("generation session aborted")

// generateOnce 执行一次生成并应用结果
// seq 为本次调用在运行中的位次（手动调用传 0）。
// 返回 (nil, nil) 表示生成服务未产出内容
func (c *Controller) generateOnce(ctx context.Context, conv *entity.Conversation, characterID string, seq int) (*entity.Message, error) {
	char, err := c.characters.GetByID(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if char == nil {
		return nil, apperrors.ErrCharacterNotFound
	}

	req := &GenerateRequest{
		ConversationID:  conv.ID,
		CharacterID:     characterID,
		WorkMode:        conv.WorkMode,
		ShowTime:        conv.ShowTime,
		SituationPrompt: conv.SituationPrompt,
		AutoCallCount:   seq,
		SelectedModel:   conv.SelectedModel,
	}

	if conv.UseAffectionSys && c.affection != nil {
		req.AffectionPrompt = c.affectionPrompt(ctx, conv, characterID)
	}

	// 第一次冷却检查：决定是否向生成服务请求图片
	cooldownKey := cooldown.ImageKey(conv.OwnerID)
	if conv.ImageGenerationEnabled && char.SupportsImageGeneration {
		now := time.Now()
		if c.gate.IsOnCooldown(ctx, cooldownKey, now) {
			req.ImageCooldownSeconds = c.gate.Remaining(ctx, cooldownKey, now)
		} else {
			req.ImageGenerationEnabled = true
		}
	}

	sess := c.sessions.Start(ctx, conv.ID)
	defer c.sessions.Release(sess)

	reply, err := c.generator.GenerateReply(sess.Context(), req)
	if err != nil {
		if sess.Aborted() || errors.Is(err, context.Canceled) {
			return nil, errSessionAborted
		}
		sess.Fail()
		return nil, err
	}

	// abort-wins：取消与成功结果竞态时，以中止为准丢弃结果
	if !sess.Succeed() {
		return nil, errSessionAborted
	}

	if reply == nil || strings.TrimSpace(reply.Content) == "" {
		return nil, nil
	}

	msg := entity.NewAssistantMessage(conv.ID, characterID, reply.Content, seq)
	if err := c.store.ApplyMessage(ctx, msg); err != nil {
		return nil, err
	}

	// 第二次冷却检查：网络往返期间时间已流逝，必须再次通过才挂图
	if len(reply.Images) > 0 && req.ImageGenerationEnabled {
		now := time.Now()
		if c.gate.IsOnCooldown(ctx, cooldownKey, now) {
			// 静默丢弃：冷却命中不是错误，会话照常继续
			logger.Debug(ctx, "generated images discarded, cooldown active",
				"conversation_id", conv.ID, "character_id", characterID)
		} else {
			if err := c.gate.Trigger(ctx, cooldownKey, now); err != nil {
				logger.Warn(ctx, "cooldown trigger failed", "error", err.Error())
			}
			images := make([]*entity.GeneratedImage, 0, len(reply.Images))
			for _, ref := range reply.Images {
				images = append(images, &entity.GeneratedImage{
					ID:        ref.ID,
					MessageID: msg.ID,
					URL:       ref.URL,
					Filename:  ref.Filename,
				})
			}
			if err := c.store.ApplyImages(ctx, images); err != nil {
				logger.Warn(ctx, "failed to apply generated images", "error", err.Error())
			}
		}
	}

	return msg, nil
}

// Invoke 手动调用指定角色生成一条回复
// 用户主动操作抢占进行中的自动回复：先中止现有运行与会话，再开启新会话
func (c *Controller) Invoke(ctx context.Context, conversationID, characterID string) (*entity.Message, error) {
	conv, err := c.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.ErrConversationNotFound
	}

	part, err := c.participants.Get(ctx, conversationID, characterID)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, apperrors.ErrParticipantNotFound
	}

	c.Cancel(conversationID)

	msg, err := c.generateOnce(ctx, conv, characterID, 0)
	if err != nil {
		if errors.Is(err, errSessionAborted) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "reply generation failed")
	}
	return msg, nil
}

// affectionPrompt 组装好感度提示块，失败时降级为空
func (c *Controller) affectionPrompt(ctx context.Context, conv *entity.Conversation, characterID string) string {
	nickname := ""
	if owner, err := c.users.GetByID(ctx, conv.OwnerID); err == nil && owner != nil {
		nickname = owner.Nickname
	}

	prompt, err := c.affection.PromptFor(ctx, conv.ID, characterID, nickname)
	if err != nil {
		logger.Warn(ctx, "failed to build affection prompt", "error", err.Error())
		return ""
	}
	return prompt
}

// surfaceFailure 追加一条用户可见的失败提示
// 每次运行最多一条，不自动重试，避免对故障中的生成服务形成循环冲击
func (c *Controller) surfaceFailure(ctx context.Context, conversationID string, cause error) {
	logger.Error(ctx, "auto reply generation failed", cause, "conversation_id", conversationID)
	notice := entity.NewSystemMessage(conversationID, generationFailedNotice)
	if err := c.store.ApplyMessage(ctx, notice); err != nil {
		logger.Error(ctx, "failed to surface generation failure", err)
	}
}
