package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plantcare/internal/service"
	"github.com/plantcare/internal/status"
	"github.com/spf13/cobra"
)

type samplePlant struct {
	name      string
	plantType string
}

var samplePlants = []samplePlant{
	{"Tomato", "Vegetable"},
	{"Basil", "Herb"},
	{"Strawberry", "Fruit"},
	{"Sunflower", "Flower"},
	{"Chili Pepper", "Vegetable"},
	{"Mint", "Herb"},
	{"Lemon Tree", "Fruit"},
	{"Lavender", "Flower"},
}

// seedPlants 为用户创建 count 株示例植物，并写入截至 today 的 days 天照护记录。
// 记录按植物序号和日期确定性生成，重复执行得到相同的状态分布。
func seedPlants(ctx context.Context, plants *service.PlantService, userID uuid.UUID, count, days int, today time.Time) (int, error) {
	updates := 0
	for i := 0; i < count; i++ {
		sample := samplePlants[i%len(samplePlants)]
		name := sample.name
		if i >= len(samplePlants) {
			name = fmt.Sprintf("%s #%d", sample.name, i/len(samplePlants)+1)
		}

		plant, err := plants.Create(ctx, userID, service.PlantInput{Name: name, PlantType: sample.plantType})
		if err != nil {
			return updates, fmt.Errorf("seed %s: %w", name, err)
		}

		for d := 0; d < days; d++ {
			date := today.AddDate(0, 0, -d).Format(status.DateLayout)
			for _, field := range seededFields(i, d) {
				if _, err := plants.UpdateStatus(ctx, plant.ID, userID, service.StatusUpdate{
					Date:  date,
					Field: string(field),
					Value: true,
				}); err != nil {
					return updates, fmt.Errorf("seed %s on %s: %w", name, date, err)
				}
				updates++
			}
		}
	}
	return updates, nil
}

// seededFields 每隔一天浇水，每三天施肥，每周收获一次
func seededFields(plant, day int) []status.Field {
	var fields []status.Field
	if (plant+day)%2 == 0 {
		fields = append(fields, status.Watered)
	}
	if (plant+day)%3 == 0 {
		fields = append(fields, status.Fertilized)
	}
	if (plant+day)%7 == 6 {
		fields = append(fields, status.Harvested)
	}
	return fields
}

func newSeedCmd(root *rootOptions) *cobra.Command {
	var (
		flags userFlags
		count int
		days  int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate sample plants and care history for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 || days < 0 {
				return fmt.Errorf("--plants must be positive and --days non-negative")
			}

			backend, cleanup, err := openBackend(root)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			user, _, err := ensureUser(ctx, backend.Auth, flags)
			if err != nil {
				return err
			}

			updates, err := seedPlants(ctx, backend.Plants, user.ID, count, days, time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "测试数据生成完成！")
			fmt.Fprintf(cmd.OutOrStdout(), "用户: %s (密码: %s)\n", user.Email, flags.password)
			fmt.Fprintf(cmd.OutOrStdout(), "植物: %d 株, 状态记录: %d 条\n", count, updates)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().IntVar(&count, "plants", 5, "number of plants to create")
	cmd.Flags().IntVar(&days, "days", 7, "days of care history to generate")
	return cmd
}
