package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sekaichat/internal/domain/entity"
)

// AffectionRepository 好感度状态仓储实现
type AffectionRepository struct {
	client *Client
}

// NewAffectionRepository 创建好感度仓储
func NewAffectionRepository(client *Client) *AffectionRepository {
	return &AffectionRepository{client: client}
}

// Get 获取 (会话, 角色) 对的好感度状态，不存在时返回 (nil, nil)
func (r *AffectionRepository) Get(ctx context.Context, conversationID, characterID string) (*entity.AffectionState, error) {
	ctx, span := tracer.Start(ctx, "postgres.AffectionRepository.Get")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var state entity.AffectionState
	err := db.First(&state, "conversation_id = ? AND character_id = ?", conversationID, characterID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get affection state: %w", err)
	}
	return &state, nil
}

// ListByConversation 获取会话内所有角色的好感度状态
func (r *AffectionRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.AffectionState, error) {
	ctx, span := tracer.Start(ctx, "postgres.AffectionRepository.ListByConversation")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var states []*entity.AffectionState
	err := db.Where("conversation_id = ?", conversationID).Find(&states).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list affection states: %w", err)
	}
	return states, nil
}

// Create 创建好感度状态
func (r *AffectionRepository) Create(ctx context.Context, state *entity.AffectionState) error {
	ctx, span := tracer.Start(ctx, "postgres.AffectionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(state).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create affection state: %w", err)
	}
	return nil
}

// Update 更新好感度状态（后写覆盖）
func (r *AffectionRepository) Update(ctx context.Context, state *entity.AffectionState) error {
	ctx, span := tracer.Start(ctx, "postgres.AffectionRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(state).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update affection state: %w", err)
	}
	return nil
}
