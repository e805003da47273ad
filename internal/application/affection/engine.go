package affection

import (
	"context"

	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
	"sekaichat/pkg/errors"
	"sekaichat/pkg/metrics"
)

// Engine 好感度引擎
// 持有每个 (会话, 角色) 对的状态，应用有界调整并派生行为指令
type Engine struct {
	repo repository.AffectionRepository
}

// NewEngine 创建好感度引擎
func NewEngine(repo repository.AffectionRepository) *Engine {
	return &Engine{repo: repo}
}

// EnsureState 返回状态，不存在时懒创建 (level=0, type=friendship)
func (e *Engine) EnsureState(ctx context.Context, conversationID, characterID string) (*entity.AffectionState, error) {
	state, err := e.repo.Get(ctx, conversationID, characterID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	state = entity.NewAffectionState(conversationID, characterID)
	if err := e.repo.Create(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Adjust 在当前数值上应用增量，结果裁剪到 [-100, 100]
// 总是成功；delta 可以是任意整数
func (e *Engine) Adjust(ctx context.Context, conversationID, characterID string, delta int) (*entity.AffectionState, error) {
	state, err := e.EnsureState(ctx, conversationID, characterID)
	if err != nil {
		return nil, err
	}

	state.Level = Clamp(state.Level + delta)
	if err := e.repo.Update(ctx, state); err != nil {
		return nil, err
	}
	metrics.AffectionAdjustmentsTotal.WithLabelValues("user").Inc()
	return state, nil
}

// SetLevel 直接设置数值，裁剪到 [-100, 100]
func (e *Engine) SetLevel(ctx context.Context, conversationID, characterID string, level int) (*entity.AffectionState, error) {
	state, err := e.EnsureState(ctx, conversationID, characterID)
	if err != nil {
		return nil, err
	}

	state.Level = Clamp(level)
	if err := e.repo.Update(ctx, state); err != nil {
		return nil, err
	}
	metrics.AffectionAdjustmentsTotal.WithLabelValues("user").Inc()
	return state, nil
}

// SetType 更改关系类型
// 仅当当前 level >= -10 时允许；敌对状态下类型被锁定直至数值恢复
func (e *Engine) SetType(ctx context.Context, conversationID, characterID string, typ entity.AffectionType) (*entity.AffectionState, error) {
	if typ != entity.AffectionTypeFriendship && typ != entity.AffectionTypeLove {
		return nil, errors.New(errors.CodeInvalidParam, "unknown affection type")
	}

	state, err := e.EnsureState(ctx, conversationID, characterID)
	if err != nil {
		return nil, err
	}

	if state.TypeLocked() {
		return nil, errors.ErrAffectionLocked.WithDetail(
			"affection type cannot change while level is below -10")
	}

	state.Type = typ
	if err := e.repo.Update(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// PromptFor 组装某个角色在某会话中的好感度提示块
// 状态不存在时视为中立（空串），不触发懒创建
func (e *Engine) PromptFor(ctx context.Context, conversationID, characterID, userNickname string) (string, error) {
	state, err := e.repo.Get(ctx, conversationID, characterID)
	if err != nil {
		return "", err
	}
	if state == nil {
		return "", nil
	}
	return PromptBlock(state.Level, state.Type, userNickname), nil
}
