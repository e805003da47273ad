// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"sekaichat/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	ListByConversation(ctx context.Context, conversationID string, pagination Pagination) (*PagedResult[*entity.Message], error)
	// ListRecent 按时间倒序返回最近 limit 条消息（好感度分析用）
	ListRecent(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error)
	Delete(ctx context.Context, id string) error
	// AttachImages 将生成的图片挂到消息上
	AttachImages(ctx context.Context, images []*entity.GeneratedImage) error
	ListImages(ctx context.Context, messageID string) ([]*entity.GeneratedImage, error)
}
