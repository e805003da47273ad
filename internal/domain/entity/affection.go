// Package entity 定义领域实体
package entity

import "time"

// AffectionType 好感度关系类型
type AffectionType string

const (
	AffectionTypeFriendship AffectionType = "friendship"
	AffectionTypeLove       AffectionType = "love"
)

// 好感度边界常量
const (
	// AffectionMinLevel 好感度下限
	AffectionMinLevel = -100
	// AffectionMaxLevel 好感度上限
	AffectionMaxLevel = 100
	// AffectionTypeLockThreshold 低于该值时关系类型被锁定
	AffectionTypeLockThreshold = -10
)

// AffectionState 每个 (会话, 角色) 对的好感度状态
// 首次邀请角色进入启用好感度系统的会话时懒创建，level=0, type=friendship
type AffectionState struct {
	ConversationID string        `json:"conversation_id" gorm:"type:uuid;primaryKey"`
	CharacterID    string        `json:"character_id" gorm:"type:uuid;primaryKey"`
	Level          int           `json:"level" gorm:"not null;default:0"`
	Type           AffectionType `json:"type" gorm:"type:varchar(16);not null;default:'friendship'"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

func (AffectionState) TableName() string {
	return "affection_states"
}

// NewAffectionState 创建初始好感度状态
func NewAffectionState(conversationID, characterID string) *AffectionState {
	return &AffectionState{
		ConversationID: conversationID,
		CharacterID:    characterID,
		Level:          0,
		Type:           AffectionTypeFriendship,
		UpdatedAt:      time.Now(),
	}
}

// TypeLocked 关系类型是否被锁定（敌对状态下不可更改）
func (s *AffectionState) TypeLocked() bool {
	return s.Level < AffectionTypeLockThreshold
}
