package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
)

// ConversationRepository 会话仓储实现
type ConversationRepository struct {
	client *Client
}

// NewConversationRepository 创建会话仓储
func NewConversationRepository(client *Client) *ConversationRepository {
	return &ConversationRepository{client: client}
}

// Create 创建会话
func (r *ConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(conversation).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取会话
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var conversation entity.Conversation
	if err := db.First(&conversation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conversation, nil
}

// ListByOwner 获取用户的会话列表
func (r *ConversationRepository) ListByOwner(ctx context.Context, ownerID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Conversation], error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.ListByOwner")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Conversation{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count conversations: %w", err)
	}

	var conversations []*entity.Conversation
	if err := query.Order("updated_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&conversations).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	return repository.NewPagedResult(conversations, total, pagination), nil
}

// Update 更新会话
func (r *ConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(conversation).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return nil
}

// Delete 删除会话
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Conversation{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// IncrementUserMessageCount 递增累计用户消息数并返回最新值
// 数据库端原子自增，并发发送时计数不丢
func (r *ConversationRepository) IncrementUserMessageCount(ctx context.Context, id string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationRepository.IncrementUserMessageCount")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int
	err := db.Raw(
		"UPDATE conversations SET user_message_count = user_message_count + 1, updated_at = NOW() WHERE id = ? RETURNING user_message_count",
		id,
	).Scan(&count).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to increment user message count: %w", err)
	}
	return count, nil
}
