package db

import (
	"time"

	"github.com/google/uuid"
)

// User 定义了用户模型，Password 保存 bcrypt 哈希且永不序列化
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	City      *string   `json:"city"`
	BirthDate *string   `json:"birth_date"`
	Avatar    *string   `json:"avatar"`
	Bio       *string   `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 与既有库表保持一致
func (User) TableName() string {
	return "users"
}
