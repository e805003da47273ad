package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
)

// MessageRepository 消息仓储实现
type MessageRepository struct {
	client *Client
}

// NewMessageRepository 创建消息仓储
func NewMessageRepository(client *Client) *MessageRepository {
	return &MessageRepository{client: client}
}

// Create 创建消息
func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	ctx, span := tracer.Start(ctx, "postgres.MessageRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(message).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取消息
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	ctx, span := tracer.Start(ctx, "postgres.MessageRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var message entity.Message
	if err := db.First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &message, nil
}

// ListByConversation 分页获取会话消息（按时间正序）
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Message], error) {
	ctx, span := tracer.Start(ctx, "postgres.MessageRepository.ListByConversation")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []*entity.Message
	if err := query.Order("created_at ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&messages).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return repository.NewPagedResult(messages, total, pagination), nil
}

// ListRecent 按时间倒序返回最近 limit 条消息
func (r *MessageRepository) ListRecent(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	ctx, span := tracer.Start(ctx, "postgres.MessageRepository.ListRecent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var messages []*entity.Message
	err := db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return messages, nil
}

// Delete 删除消息
func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.MessageRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Message{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// AttachImages 将生成的图片挂到消息上
func (r *MessageRepository) AttachImages(ctx context.Context, images []*entity.GeneratedImage) error {
	ctx, span := tracer.Start(ctx, "postgres.MessageRepository.AttachImages")
	defer span.End()

	if len(images) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	if err := db.Create(images).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to attach images: %w", err)
	}
	return nil
}

// ListImages 获取消息的图片列表
func (r *MessageRepository) ListImages(ctx context.Context, messageID string) ([]*entity.GeneratedImage, error) {
	ctx, span := tracer.Start(ctx, "postgres.MessageRepository.ListImages")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var images []*entity.GeneratedImage
	err := db.Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&images).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}
