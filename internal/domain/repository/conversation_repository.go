// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"sekaichat/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByOwner(ctx context.Context, ownerID string, pagination Pagination) (*PagedResult[*entity.Conversation], error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	Delete(ctx context.Context, id string) error
	// IncrementUserMessageCount 递增会话累计用户消息数并返回最新值
	// 用作好感度分析的触发节拍
	IncrementUserMessageCount(ctx context.Context, id string) (int, error)
}

type ParticipantRepository interface {
	Create(ctx context.Context, participant *entity.Participant) error
	Get(ctx context.Context, conversationID, characterID string) (*entity.Participant, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Participant, error)
	Delete(ctx context.Context, conversationID, characterID string) error
}
