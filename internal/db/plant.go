package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/plantcare/internal/status"
)

// Plant 定义了植物模型
// Status 以 JSON 形式整体存放在一列中，键为 YYYY-MM-DD，与既有数据格式一致
// Age 为种植天数，读取时刷新
type Plant struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string       `gorm:"not null" json:"name"`
	PlantType   string       `gorm:"not null" json:"plant_type"`
	Image       *string      `json:"image"`
	PlantedDate time.Time    `json:"planted_date"`
	Age         int          `json:"age"`
	UserID      uuid.UUID    `gorm:"type:uuid;index;not null" json:"user_id"`
	Status      status.Store `gorm:"type:jsonb;serializer:json" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName 与既有库表保持一致
func (Plant) TableName() string {
	return "plants"
}

// CareStatus 实现 status.Carrier
func (p Plant) CareStatus() status.Store {
	return p.Status
}

// AgeOn 返回截至 now 的种植天数，不会为负
func (p Plant) AgeOn(now time.Time) int {
	if p.PlantedDate.IsZero() || now.Before(p.PlantedDate) {
		return 0
	}
	return int(now.Sub(p.PlantedDate).Hours() / 24)
}
