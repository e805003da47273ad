package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sekaichat/internal/domain/entity"
)

// ParticipantRepository 会话参与者仓储实现
type ParticipantRepository struct {
	client *Client
}

// NewParticipantRepository 创建参与者仓储
func NewParticipantRepository(client *Client) *ParticipantRepository {
	return &ParticipantRepository{client: client}
}

// Create 添加参与者
func (r *ParticipantRepository) Create(ctx context.Context, participant *entity.Participant) error {
	ctx, span := tracer.Start(ctx, "postgres.ParticipantRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(participant).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// Get 获取指定参与者
func (r *ParticipantRepository) Get(ctx context.Context, conversationID, characterID string) (*entity.Participant, error) {
	ctx, span := tracer.Start(ctx, "postgres.ParticipantRepository.Get")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var participant entity.Participant
	err := db.First(&participant, "conversation_id = ? AND character_id = ?", conversationID, characterID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &participant, nil
}

// ListByConversation 获取会话的参与者列表（按加入顺序）
func (r *ParticipantRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Participant, error) {
	ctx, span := tracer.Start(ctx, "postgres.ParticipantRepository.ListByConversation")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var participants []*entity.Participant
	err := db.Where("conversation_id = ?", conversationID).
		Order("invited_at ASC").
		Find(&participants).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

// Delete 移除参与者
func (r *ParticipantRepository) Delete(ctx context.Context, conversationID, characterID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ParticipantRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Delete(&entity.Participant{}, "conversation_id = ? AND character_id = ?", conversationID, characterID).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return nil
}
