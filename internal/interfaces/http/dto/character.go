package dto

import (
	"time"

	"sekaichat/internal/domain/entity"
)

// CreateCharacterRequest 创建角色请求
type CreateCharacterRequest struct {
	Name                    string `json:"name" binding:"required,max=64"`
	ProfileImage            string `json:"profile_image" binding:"omitempty,max=512"`
	Prompt                  string `json:"prompt" binding:"required"`
	FirstMessage            string `json:"first_message" binding:"omitempty"`
	SupportsImageGeneration bool   `json:"supports_image_generation"`
}

// UpdateCharacterRequest 更新角色请求
type UpdateCharacterRequest struct {
	Name                    *string `json:"name" binding:"omitempty,max=64"`
	ProfileImage            *string `json:"profile_image" binding:"omitempty,max=512"`
	Prompt                  *string `json:"prompt" binding:"omitempty"`
	FirstMessage            *string `json:"first_message" binding:"omitempty"`
	SupportsImageGeneration *bool   `json:"supports_image_generation"`
}

// CharacterDTO 角色信息
type CharacterDTO struct {
	ID                      string    `json:"id"`
	Type                    string    `json:"type"`
	Name                    string    `json:"name"`
	ProfileImage            string    `json:"profile_image,omitempty"`
	Prompt                  string    `json:"prompt,omitempty"`
	FirstMessage            string    `json:"first_message,omitempty"`
	SupportsImageGeneration bool      `json:"supports_image_generation"`
	CreatedAt               time.Time `json:"created_at"`
}

// ToCharacterDTO 将领域实体转换为 DTO
func ToCharacterDTO(ch *entity.Character) *CharacterDTO {
	if ch == nil {
		return nil
	}
	return &CharacterDTO{
		ID:                      ch.ID,
		Type:                    string(ch.Type),
		Name:                    ch.Name,
		ProfileImage:            ch.ProfileImage,
		Prompt:                  ch.Prompt,
		FirstMessage:            ch.FirstMessage,
		SupportsImageGeneration: ch.SupportsImageGeneration,
		CreatedAt:               ch.CreatedAt,
	}
}

// ToCharacterDTOs 批量转换
func ToCharacterDTOs(chars []*entity.Character) []*CharacterDTO {
	out := make([]*CharacterDTO, 0, len(chars))
	for _, ch := range chars {
		out = append(out, ToCharacterDTO(ch))
	}
	return out
}
