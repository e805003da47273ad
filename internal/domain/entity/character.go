// Package entity 定义领域实体
package entity

import "time"

// CharacterType 角色类型：官方角色或用户自建角色
type CharacterType string

const (
	CharacterTypeOfficial CharacterType = "official"
	CharacterTypeUser     CharacterType = "user"
)

// Character 角色定义
// 对编排核心而言是不透明的：核心只关心名称、头像与图片生成能力
type Character struct {
	ID                      string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID                 *string       `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	Type                    CharacterType `json:"type" gorm:"type:varchar(16);not null;default:'user'"`
	Name                    string        `json:"name" gorm:"type:varchar(64);not null"`
	ProfileImage            string        `json:"profile_image,omitempty" gorm:"type:varchar(512)"`
	Prompt                  string        `json:"prompt,omitempty" gorm:"type:text"`
	FirstMessage            string        `json:"first_message,omitempty" gorm:"type:text"`
	SupportsImageGeneration bool          `json:"supports_image_generation" gorm:"not null;default:false"`
	CreatedAt               time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt               time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Character) TableName() string {
	return "characters"
}

// NewCharacter 创建用户自建角色
func NewCharacter(ownerID, name string) *Character {
	now := time.Now()
	return &Character{
		OwnerID:   &ownerID,
		Type:      CharacterTypeUser,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOfficial 是否为官方角色
func (c *Character) IsOfficial() bool {
	return c.Type == CharacterTypeOfficial
}
