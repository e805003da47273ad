package dto

import (
	"time"

	"sekaichat/internal/domain/entity"
)

// CreateConversationRequest 创建会话请求
type CreateConversationRequest struct {
	Title        string   `json:"title" binding:"omitempty,max=128"`
	CharacterIDs []string `json:"character_ids" binding:"omitempty,dive,uuid"`
}

// UpdateConversationRequest 更新会话设置请求
// 指针字段缺省表示不修改
type UpdateConversationRequest struct {
	Title                     *string `json:"title" binding:"omitempty,max=128"`
	AutoReplyEnabled          *bool   `json:"auto_reply_enabled"`
	ContinuousResponseEnabled *bool   `json:"continuous_response_enabled"`
	MaxAutoCallSequence       *int    `json:"max_auto_call_sequence" binding:"omitempty,min=1"`
	WorkMode                  *bool   `json:"work_mode"`
	ShowTime                  *bool   `json:"show_time"`
	UseAffectionSys           *bool   `json:"use_affection_sys"`
	ImageGenerationEnabled    *bool   `json:"image_generation_enabled"`
	SituationPrompt           *string `json:"situation_prompt" binding:"omitempty,max=4000"`
	SelectedModel             *string `json:"selected_model" binding:"omitempty,max=128"`
}

// ConversationDTO 会话信息
type ConversationDTO struct {
	ID                        string    `json:"id"`
	Title                     string    `json:"title"`
	AutoReplyEnabled          bool      `json:"auto_reply_enabled"`
	ContinuousResponseEnabled bool      `json:"continuous_response_enabled"`
	MaxAutoCallSequence       int       `json:"max_auto_call_sequence"`
	WorkMode                  bool      `json:"work_mode"`
	ShowTime                  bool      `json:"show_time"`
	UseAffectionSys           bool      `json:"use_affection_sys"`
	ImageGenerationEnabled    bool      `json:"image_generation_enabled"`
	SituationPrompt           string    `json:"situation_prompt,omitempty"`
	SelectedModel             string    `json:"selected_model,omitempty"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// ParticipantDTO 会话参与者
type ParticipantDTO struct {
	CharacterID   string    `json:"character_id"`
	CharacterType string    `json:"character_type"`
	Name          string    `json:"name,omitempty"`
	ProfileImage  string    `json:"profile_image,omitempty"`
	InvitedAt     time.Time `json:"invited_at"`
}

// InviteParticipantRequest 邀请角色请求
type InviteParticipantRequest struct {
	CharacterID string `json:"character_id" binding:"required,uuid"`
}

// MessageDTO 消息信息
type MessageDTO struct {
	ID               string              `json:"id"`
	Role             string              `json:"role"`
	Content          string              `json:"content"`
	CharacterID      string              `json:"character_id,omitempty"`
	AutoCallSequence int                 `json:"auto_call_sequence,omitempty"`
	Images           []GeneratedImageDTO `json:"images,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// GeneratedImageDTO 消息附带的生成图片
type GeneratedImageDTO struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// ToConversationDTO 将领域实体转换为 DTO
func ToConversationDTO(conv *entity.Conversation) *ConversationDTO {
	if conv == nil {
		return nil
	}
	return &ConversationDTO{
		ID:                        conv.ID,
		Title:                     conv.Title,
		AutoReplyEnabled:          conv.AutoReplyEnabled,
		ContinuousResponseEnabled: conv.ContinuousResponseEnabled,
		MaxAutoCallSequence:       conv.MaxAutoCallSequence,
		WorkMode:                  conv.WorkMode,
		ShowTime:                  conv.ShowTime,
		UseAffectionSys:           conv.UseAffectionSys,
		ImageGenerationEnabled:    conv.ImageGenerationEnabled,
		SituationPrompt:           conv.SituationPrompt,
		SelectedModel:             conv.SelectedModel,
		CreatedAt:                 conv.CreatedAt,
		UpdatedAt:                 conv.UpdatedAt,
	}
}

// ToConversationDTOs 批量转换
func ToConversationDTOs(convs []*entity.Conversation) []*ConversationDTO {
	out := make([]*ConversationDTO, 0, len(convs))
	for _, conv := range convs {
		out = append(out, ToConversationDTO(conv))
	}
	return out
}

// ToMessageDTO 将领域实体转换为 DTO
func ToMessageDTO(msg *entity.Message, images []*entity.GeneratedImage) *MessageDTO {
	if msg == nil {
		return nil
	}
	d := &MessageDTO{
		ID:               msg.ID,
		Role:             string(msg.Role),
		Content:          msg.Content,
		AutoCallSequence: msg.AutoCallSequence,
		CreatedAt:        msg.CreatedAt,
	}
	if msg.CharacterID != nil {
		d.CharacterID = *msg.CharacterID
	}
	for _, img := range images {
		d.Images = append(d.Images, GeneratedImageDTO{
			ID:       img.ID,
			URL:      img.URL,
			Filename: img.Filename,
		})
	}
	return d
}
