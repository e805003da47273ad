// Package entity 定义领域实体
package entity

import "time"

// Participant 会话参与者：绑定到会话中的一个角色
// 主键为 (ConversationID, CharacterID)
type Participant struct {
	ConversationID string        `json:"conversation_id" gorm:"type:uuid;primaryKey"`
	CharacterID    string        `json:"character_id" gorm:"type:uuid;primaryKey"`
	CharacterType  CharacterType `json:"character_type" gorm:"type:varchar(16);not null"`
	InvitedAt      time.Time     `json:"invited_at" gorm:"autoCreateTime"`
}

func (Participant) TableName() string {
	return "participants"
}

// NewParticipant 邀请角色进入会话
func NewParticipant(conversationID, characterID string, characterType CharacterType) *Participant {
	return &Participant{
		ConversationID: conversationID,
		CharacterID:    characterID,
		CharacterType:  characterType,
		InvitedAt:      time.Now(),
	}
}
