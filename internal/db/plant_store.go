package db

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlantStore 是植物记录的关系型存储实现
type PlantStore struct {
	db *gorm.DB
}

// NewPlantStore 构造 PlantStore
func NewPlantStore(gdb *gorm.DB) *PlantStore {
	return &PlantStore{db: gdb}
}

// Create 插入新植物
func (s *PlantStore) Create(ctx context.Context, plant *Plant) error {
	if err := s.db.WithContext(ctx).Create(plant).Error; err != nil {
		return storageErr("create plant", err)
	}
	return nil
}

// Get 按 ID 与所属用户读取植物
func (s *PlantStore) Get(ctx context.Context, id, userID uuid.UUID) (*Plant, error) {
	var plant Plant
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&plant).Error; err != nil {
		return nil, storageErr("get plant", err)
	}
	return &plant, nil
}

// ListByUser 返回用户全部植物，按创建时间倒序
func (s *PlantStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Plant, error) {
	var plants []Plant
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&plants).Error; err != nil {
		return nil, storageErr("list plants", err)
	}
	return plants, nil
}

// Save 整体写回可变字段。
// 记录级整体替换是唯一的原子粒度，不做乐观锁。
func (s *PlantStore) Save(ctx context.Context, plant *Plant) error {
	res := s.db.WithContext(ctx).
		Model(&Plant{}).
		Where("id = ? AND user_id = ?", plant.ID, plant.UserID).
		Select("name", "plant_type", "image", "age", "status", "updated_at").
		Updates(plant)
	if res.Error != nil {
		return storageErr("save plant", res.Error)
	}
	if res.RowsAffected == 0 {
		return storageErr("save plant", gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete 删除植物并返回受影响行数
func (s *PlantStore) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Plant{})
	if res.Error != nil {
		return 0, storageErr("delete plant", res.Error)
	}
	return res.RowsAffected, nil
}
