// Package entity 定义领域实体
package entity

import "time"

// Conversation 会话实体
// 模式开关与 situation prompt 由自动回复循环在每轮生成请求中透传
type Conversation struct {
	ID                        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID                   string    `json:"owner_id" gorm:"type:uuid;index;not null"`
	Title                     string    `json:"title" gorm:"type:varchar(128);not null"`
	AutoReplyEnabled          bool      `json:"auto_reply_enabled" gorm:"not null;default:true"`
	ContinuousResponseEnabled bool      `json:"continuous_response_enabled" gorm:"not null;default:false"`
	MaxAutoCallSequence       int       `json:"max_auto_call_sequence" gorm:"not null;default:3"`
	WorkMode                  bool      `json:"work_mode" gorm:"not null;default:false"`
	ShowTime                  bool      `json:"show_time" gorm:"not null;default:false"`
	UseAffectionSys           bool      `json:"use_affection_sys" gorm:"not null;default:false"`
	ImageGenerationEnabled    bool      `json:"image_generation_enabled" gorm:"not null;default:false"`
	SituationPrompt           string    `json:"situation_prompt,omitempty" gorm:"type:text"`
	SelectedModel             string    `json:"selected_model,omitempty" gorm:"type:varchar(64)"`
	UserMessageCount          int       `json:"user_message_count" gorm:"not null;default:0"`
	CreatedAt                 time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt                 time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// NewConversation 创建会话
func NewConversation(ownerID, title string) *Conversation {
	now := time.Now()
	if title == "" {
		title = "新对话"
	}
	return &Conversation{
		OwnerID:             ownerID,
		Title:               title,
		AutoReplyEnabled:    true,
		MaxAutoCallSequence: 3,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// EffectiveMaxSequence 计算本次自动回复运行的轮数上限
// 未开启连续响应时固定为 1
func (c *Conversation) EffectiveMaxSequence(limit int) int {
	if !c.ContinuousResponseEnabled {
		return 1
	}
	n := c.MaxAutoCallSequence
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}
