// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"sekaichat/internal/domain/entity"
)

type CharacterRepository interface {
	Create(ctx context.Context, character *entity.Character) error
	GetByID(ctx context.Context, id string) (*entity.Character, error)
	ListVisible(ctx context.Context, ownerID string, pagination Pagination) (*PagedResult[*entity.Character], error)
	Update(ctx context.Context, character *entity.Character) error
	Delete(ctx context.Context, id string) error
}
