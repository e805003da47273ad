// Package entity 定义领域实体
package entity

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户实体
type User struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username         string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	PasswordHash     string    `json:"-" gorm:"type:varchar(128);not null"`
	Nickname         string    `json:"nickname" gorm:"type:varchar(64);not null"`
	SelfIntroduction string    `json:"self_introduction,omitempty" gorm:"type:text"`
	ProfileImage     string    `json:"profile_image,omitempty" gorm:"type:varchar(512)"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// NewUser 创建新用户
func NewUser(username, nickname string) *User {
	now := time.Now()
	if nickname == "" {
		nickname = username
	}
	return &User{
		Username:  username,
		Nickname:  nickname,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPassword 设置并散列密码
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
