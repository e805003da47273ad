// Package autoreply 提供自动回复编排核心
// 由说话人选择循环、生成会话与冷却门组成的状态机
package autoreply

import (
	"context"

	"sekaichat/internal/domain/entity"
	"sekaichat/internal/domain/repository"
)

// Speaker 选角服务返回的下一位说话人
type Speaker struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// SpeakerSelector 说话人选择服务
// 返回 (nil, nil) 表示"无人发言"，当前运行正常结束
type SpeakerSelector interface {
	SelectSpeaker(ctx context.Context, conversationID string) (*Speaker, error)
}

// GenerateRequest 单次回复生成请求
type GenerateRequest struct {
	ConversationID         string `json:"conversation_id"`
	CharacterID            string `json:"character_id"`
	WorkMode               bool   `json:"work_mode"`
	ShowTime               bool   `json:"show_time"`
	SituationPrompt        string `json:"situation_prompt,omitempty"`
	AffectionPrompt        string `json:"affection_prompt,omitempty"`
	ImageGenerationEnabled bool   `json:"image_generation_enabled"`
	ImageCooldownSeconds   int    `json:"image_cooldown_seconds,omitempty"`
	// AutoCallCount 本次调用在自动回复运行中的位次（1 起），手动调用为 0
	AutoCallCount int    `json:"auto_call_count,omitempty"`
	SelectedModel string `json:"selected_model,omitempty"`
}

// ImageRef 生成服务返回的图片引用
type ImageRef struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// Reply 单次生成结果
// Content 为空表示"未产出内容"，不是错误
type Reply struct {
	Content string     `json:"content"`
	Images  []ImageRef `json:"images,omitempty"`
}

// Generator 回复生成服务
type Generator interface {
	GenerateReply(ctx context.Context, req *GenerateRequest) (*Reply, error)
}

// MessageStore 核心同步调用的消息落库接口
// 渲染层订阅这些调用产生的变化，核心不触碰任何 UI
type MessageStore interface {
	ApplyMessage(ctx context.Context, msg *entity.Message) error
	ApplyImages(ctx context.Context, images []*entity.GeneratedImage) error
}

// RepoMessageStore 基于仓储的 MessageStore 实现
type RepoMessageStore struct {
	messages repository.MessageRepository
}

// NewRepoMessageStore 创建基于仓储的消息存储
func NewRepoMessageStore(messages repository.MessageRepository) *RepoMessageStore {
	return &RepoMessageStore{messages: messages}
}

// ApplyMessage 实现 MessageStore
func (s *RepoMessageStore) ApplyMessage(ctx context.Context, msg *entity.Message) error {
	return s.messages.Create(ctx, msg)
}

// ApplyImages 实现 MessageStore
func (s *RepoMessageStore) ApplyImages(ctx context.Context, images []*entity.GeneratedImage) error {
	if len(images) == 0 {
		return nil
	}
	return s.messages.AttachImages(ctx, images)
}
