package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/status"
	"github.com/sirupsen/logrus"
)

var (
	// ErrPlantNotFound 在植物不存在或不属于当前用户时返回
	ErrPlantNotFound = fmt.Errorf("plant %w", db.ErrNotFound)
	// ErrInvalidPlant 在植物字段校验失败时返回
	ErrInvalidPlant = errors.New("invalid plant")
)

// PlantService 负责植物的增删改查、每日状态合并与仪表盘统计
// 只依赖 PlantRepository，两种存储后端共用同一套逻辑
type PlantService struct {
	repo PlantRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

// PlantInput 定义创建植物时的字段
type PlantInput struct {
	Name      string
	PlantType string
	Image     *string
}

// PlantUpdate 定义部分更新；nil 字段保持原值，Status 非 nil 时整体替换
type PlantUpdate struct {
	Name      *string
	PlantType *string
	Image     *string
	Status    status.Store
}

// StatusUpdate 描述一次单日单字段的状态写入
type StatusUpdate struct {
	Date  string
	Field string
	Value bool
}

// NewPlantService 构造 PlantService
func NewPlantService(repo PlantRepository, log logrus.FieldLogger) *PlantService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PlantService{repo: repo, log: log, now: time.Now}
}

// Create 新建植物，状态为空、种植日期为当前时间
func (s *PlantService) Create(ctx context.Context, userID uuid.UUID, input PlantInput) (*db.Plant, error) {
	name, err := requireText("name", input.Name)
	if err != nil {
		return nil, err
	}
	plantType, err := requireText("plant_type", input.PlantType)
	if err != nil {
		return nil, err
	}
	image, err := normalizeImage(input.Image)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	plant := db.Plant{
		ID:          uuid.New(),
		Name:        name,
		PlantType:   plantType,
		Image:       image,
		PlantedDate: now,
		UserID:      userID,
		Status:      status.Store{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, &plant); err != nil {
		return nil, fmt.Errorf("create plant: %w", err)
	}
	return &plant, nil
}

// List 返回用户全部植物
func (s *PlantService) List(ctx context.Context, userID uuid.UUID) ([]db.Plant, error) {
	plants, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	now := s.now()
	for i := range plants {
		plants[i].Age = plants[i].AgeOn(now)
	}
	return plants, nil
}

// Get 根据 ID 获取植物
func (s *PlantService) Get(ctx context.Context, id, userID uuid.UUID) (*db.Plant, error) {
	plant, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrPlantNotFound
		}
		return nil, fmt.Errorf("get plant: %w", err)
	}
	plant.Age = plant.AgeOn(s.now())
	return plant, nil
}

// Update 部分更新植物基础信息，可整体替换 status
func (s *PlantService) Update(ctx context.Context, id, userID uuid.UUID, update PlantUpdate) (*db.Plant, error) {
	var (
		name, plantType string
		err             error
	)
	if update.Name != nil {
		if name, err = requireText("name", *update.Name); err != nil {
			return nil, err
		}
	}
	if update.PlantType != nil {
		if plantType, err = requireText("plant_type", *update.PlantType); err != nil {
			return nil, err
		}
	}
	image, err := normalizeImage(update.Image)
	if err != nil {
		return nil, err
	}
	if update.Status != nil {
		if err := update.Status.Validate(); err != nil {
			return nil, err
		}
	}

	plant, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		plant.Name = name
	}
	if update.PlantType != nil {
		plant.PlantType = plantType
	}
	if image != nil {
		plant.Image = image
	}
	if update.Status != nil {
		plant.Status = update.Status.Clone()
	}

	return s.save(ctx, plant, "update plant")
}

// UpdateStatus 对单日单字段执行读取-合并-写回。
// 校验在访问存储前完成，失败时不产生任何写入。
// 同一植物的并发更新没有锁保护，后写入者覆盖整条状态。
func (s *PlantService) UpdateStatus(ctx context.Context, id, userID uuid.UUID, update StatusUpdate) (*db.Plant, error) {
	if err := status.ValidateDate(update.Date); err != nil {
		return nil, err
	}
	field, err := status.ParseField(update.Field)
	if err != nil {
		return nil, err
	}

	plant, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	next, err := plant.Status.Apply(update.Date, string(field), update.Value)
	if err != nil {
		return nil, err
	}
	plant.Status = next

	saved, err := s.save(ctx, plant, "update plant status")
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"plant_id": id,
		"user_id":  userID,
		"date":     update.Date,
		"field":    field,
		"value":    update.Value,
	}).Debug("plant status updated")

	return saved, nil
}

// Delete 删除植物，不存在时返回 ErrPlantNotFound
func (s *PlantService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	if n == 0 {
		return ErrPlantNotFound
	}
	return nil
}

// Dashboard 汇总用户全部植物在 date 当天的状态
func (s *PlantService) Dashboard(ctx context.Context, userID uuid.UUID, date string) (status.Summary, error) {
	if err := status.ValidateDate(date); err != nil {
		return status.Summary{}, err
	}

	plants, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return status.Summary{}, fmt.Errorf("dashboard: %w", err)
	}
	return status.Compute(plants, date), nil
}

func (s *PlantService) save(ctx context.Context, plant *db.Plant, op string) (*db.Plant, error) {
	now := s.now()
	plant.Age = plant.AgeOn(now)
	plant.UpdatedAt = now.UTC()

	if err := s.repo.Save(ctx, plant); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrPlantNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plant, nil
}
