package dto

import (
	"time"

	"sekaichat/internal/domain/entity"
)

// UserDTO 用户信息
type UserDTO struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Nickname         string    `json:"nickname"`
	SelfIntroduction string    `json:"self_introduction,omitempty"`
	ProfileImage     string    `json:"profile_image,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// UpdateProfileRequest 更新个人资料请求
// 指针字段缺省表示不修改
type UpdateProfileRequest struct {
	Nickname         *string `json:"nickname" binding:"omitempty,max=64"`
	SelfIntroduction *string `json:"self_introduction" binding:"omitempty,max=2000"`
	ProfileImage     *string `json:"profile_image" binding:"omitempty,max=512"`
}

// ToUserDTO 将领域实体转换为 DTO
func ToUserDTO(u *entity.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:               u.ID,
		Username:         u.Username,
		Nickname:         u.Nickname,
		SelfIntroduction: u.SelfIntroduction,
		ProfileImage:     u.ProfileImage,
		CreatedAt:        u.CreatedAt,
	}
}
