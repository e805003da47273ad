package dto

import (
	"time"

	"sekaichat/internal/domain/entity"
)

// AdjustAffectionRequest 调整好感度请求
type AdjustAffectionRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// SetAffectionTypeRequest 切换关系类型请求
type SetAffectionTypeRequest struct {
	Type string `json:"type" binding:"required,oneof=friendship love"`
}

// AffectionStateDTO 角色好感度状态
type AffectionStateDTO struct {
	ConversationID string    `json:"conversation_id"`
	CharacterID    string    `json:"character_id"`
	Level          int       `json:"level"`
	Type           string    `json:"type"`
	Label          string    `json:"label,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConversationAffectionDTO 会话好感度总览
type ConversationAffectionDTO struct {
	ConversationID  string                     `json:"conversation_id"`
	UseAffectionSys bool                       `json:"use_affection_sys"`
	Participants    []*ParticipantAffectionDTO `json:"participants"`
}

// ParticipantAffectionDTO 参与者好感度条目
type ParticipantAffectionDTO struct {
	CharacterID    string `json:"character_id"`
	CharacterType  string `json:"character_type"`
	Name           string `json:"name,omitempty"`
	ProfileImage   string `json:"profile_image,omitempty"`
	AffectionLevel int    `json:"affection_level"`
	AffectionType  string `json:"affection_type"`
	Label          string `json:"label,omitempty"`
}

// ToAffectionStateDTO 将领域实体转换为 DTO
func ToAffectionStateDTO(state *entity.AffectionState, label string) *AffectionStateDTO {
	if state == nil {
		return nil
	}
	return &AffectionStateDTO{
		ConversationID: state.ConversationID,
		CharacterID:    state.CharacterID,
		Level:          state.Level,
		Type:           string(state.Type),
		Label:          label,
		UpdatedAt:      state.UpdatedAt,
	}
}
