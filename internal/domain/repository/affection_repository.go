// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"sekaichat/internal/domain/entity"
)

type AffectionRepository interface {
	// Get 返回 (会话, 角色) 对的好感度状态；不存在时返回 (nil, nil)
	Get(ctx context.Context, conversationID, characterID string) (*entity.AffectionState, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.AffectionState, error)
	Create(ctx context.Context, state *entity.AffectionState) error
	Update(ctx context.Context, state *entity.AffectionState) error
}
