package affection

import (
	"context"
	"fmt"
	"strings"

	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	"sekaichat/pkg/logger"
	"sekaichat/pkg/metrics"
)

// DeltaEstimate 一次自动分析的输入
type DeltaEstimate struct {
	ConversationID string
	CharacterID    string
	CurrentLevel   int
	CurrentType    entity.AffectionType
	// Transcript 最近对话的纯文本转写
	Transcript string
}

// DeltaEstimator 由生成服务实现：阅读最近对话并给出好感度增量建议
type DeltaEstimator interface {
	EstimateAffectionDelta(ctx context.Context, est *DeltaEstimate) (int, error)
}

// Analyzer 周期性好感度再估计
// 不在逐轮回复循环内，由消息计数节拍在带外触发
type Analyzer struct {
	engine    *Engine
	messages  repository.MessageRepository
	estimator DeltaEstimator
	window    int
	maxDelta  int
}

// NewAnalyzer 创建分析器
func NewAnalyzer(engine *Engine, messages repository.MessageRepository, estimator DeltaEstimator, window, maxDelta int) *Analyzer {
	if window <= 0 {
		window = 20
	}
	if maxDelta <= 0 {
		maxDelta = 5
	}
	return &Analyzer{
		engine:    engine,
		messages:  messages,
		estimator: estimator,
		window:    window,
		maxDelta:  maxDelta,
	}
}

// Analyze 读取最近对话，向估计器请求增量，裁剪后应用
func (a *Analyzer) Analyze(ctx context.Context, conversationID, characterID string) (*entity.AffectionState, error) {
	state, err := a.engine.EnsureState(ctx, conversationID, characterID)
	if err != nil {
		return nil, err
	}

	recent, err := a.messages.ListRecent(ctx, conversationID, a.window)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return state, nil
	}

	delta, err := a.estimator.EstimateAffectionDelta(ctx, &DeltaEstimate{
		ConversationID: conversationID,
		CharacterID:    characterID,
		CurrentLevel:   state.Level,
		CurrentType:    state.Type,
		Transcript:     buildTranscript(recent, characterID),
	})
	if err != nil {
		return nil, fmt.Errorf("affection delta estimate failed: %w", err)
	}

	// 单次自动分析的增量有界
	if delta > a.maxDelta {
		delta = a.maxDelta
	}
	if delta < -a.maxDelta {
		delta = -a.maxDelta
	}
	if delta == 0 {
		return state, nil
	}

	state.Level = Clamp(state.Level + delta)
	if err := a.engine.repo.Update(ctx, state); err != nil {
		return nil, err
	}

	metrics.AffectionAdjustmentsTotal.WithLabelValues("analysis").Inc()
	logger.Info(ctx, "affection analysis applied",
		"conversation_id", conversationID,
		"character_id", characterID,
		"delta", delta,
		"level", state.Level,
	)
	return state, nil
}

// buildTranscript 将最近消息（倒序存储）转写为正序纯文本
func buildTranscript(recent []*entity.Message, characterID string) string {
	var b strings.Builder
	for i := len(recent) - 1; i >= 0; i-- {
		m := recent[i]
		switch m.Role {
		case entity.RoleUser:
			b.WriteString("用户：")
		case entity.RoleAssistant:
			if m.CharacterID != nil && *m.CharacterID == characterID {
				b.WriteString("该角色：")
			} else {
				b.WriteString("其他角色：")
			}
		default:
			continue
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
