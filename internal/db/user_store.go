package db

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStore 是用户记录的关系型存储实现
type UserStore struct {
	db *gorm.DB
}

// NewUserStore 构造 UserStore
func NewUserStore(gdb *gorm.DB) *UserStore {
	return &UserStore{db: gdb}
}

// Create 插入新用户，邮箱冲突时返回 ErrDuplicate
func (s *UserStore) Create(ctx context.Context, user *User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return storageErr("create user", err)
	}
	return nil
}

// FindByEmail 按邮箱查找用户
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(email)).
		First(&user).Error; err != nil {
		return nil, storageErr("find user by email", err)
	}
	return &user, nil
}

// FindByID 按 ID 查找用户
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, storageErr("find user by id", err)
	}
	return &user, nil
}

// Count 返回用户总数，供命令行初始化使用
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return 0, storageErr("count users", err)
	}
	return count, nil
}
