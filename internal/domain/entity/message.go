// Package entity 定义领域实体
package entity

import "time"

// Role 消息角色枚举
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSituation Role = "situation"
)

// Message 会话消息
// AutoCallSequence 为 0 表示非自动回复消息，1..N 表示在一次自动回复运行中的位次
type Message struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID   string    `json:"conversation_id" gorm:"type:uuid;index;not null"`
	Role             Role      `json:"role" gorm:"type:varchar(16);not null"`
	Content          string    `json:"content" gorm:"type:text;not null"`
	CharacterID      *string   `json:"character_id,omitempty" gorm:"type:uuid;index"`
	AutoCallSequence int       `json:"auto_call_sequence" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}

// NewUserMessage 创建用户消息
func NewUserMessage(conversationID, content string) *Message {
	return &Message{
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

// NewAssistantMessage 创建角色回复消息
func NewAssistantMessage(conversationID, characterID, content string, autoCallSequence int) *Message {
	return &Message{
		ConversationID:   conversationID,
		Role:             RoleAssistant,
		Content:          content,
		CharacterID:      &characterID,
		AutoCallSequence: autoCallSequence,
		CreatedAt:        time.Now(),
	}
}

// NewSystemMessage 创建系统消息（如生成失败的提示）
func NewSystemMessage(conversationID, content string) *Message {
	return &Message{
		ConversationID: conversationID,
		Role:           RoleSystem,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

// NewSituationMessage 创建情境消息
func NewSituationMessage(conversationID, content string) *Message {
	return &Message{
		ConversationID: conversationID,
		Role:           RoleSituation,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

// GeneratedImage 生成服务返回的图片引用
type GeneratedImage struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageID string    `json:"message_id" gorm:"type:uuid;index;not null"`
	URL       string    `json:"url" gorm:"type:varchar(1024);not null"`
	Filename  string    `json:"filename" gorm:"type:varchar(256)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (GeneratedImage) TableName() string {
	return "generated_images"
}
