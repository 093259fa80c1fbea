package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/plantcare/internal/db"
)

// PlantRepository 是植物存储的抽象能力，关系型库与 Supabase 各提供一个实现
type PlantRepository interface {
	Create(ctx context.Context, plant *db.Plant) error
	Get(ctx context.Context, id, userID uuid.UUID) (*db.Plant, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]db.Plant, error)
	Save(ctx context.Context, plant *db.Plant) error
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
}

// UserRepository 是用户存储的抽象能力
type UserRepository interface {
	Create(ctx context.Context, user *db.User) error
	FindByEmail(ctx context.Context, email string) (*db.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*db.User, error)
}
