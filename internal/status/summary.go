package status

// Carrier 由拥有照护记录的实体实现（例如植物）。
type Carrier interface {
	CareStatus() Store
}

// Summary 是某用户全部植物在某一天的统计结果。
// 没有 need_harvesting 字段，与既有客户端保持一致。
type Summary struct {
	Date            string `json:"date"`
	TotalPlants     int    `json:"total_plants"`
	WateredToday    int    `json:"watered_today"`
	FertilizedToday int    `json:"fertilized_today"`
	HarvestedToday  int    `json:"harvested_today"`
	NeedWatering    int    `json:"need_watering"`
	NeedFertilizing int    `json:"need_fertilizing"`
	ReadyToHarvest  int    `json:"ready_to_harvest"`
}

// Compute 只读地汇总 date 当天的统计，不做任何 I/O。
// 没有当天记录的植物视为三个字段均为 false。
func Compute[C Carrier](plants []C, date string) Summary {
	summary := Summary{Date: date, TotalPlants: len(plants)}

	for _, p := range plants {
		day, ok := p.CareStatus().Day(date)
		if !ok {
			continue
		}
		if day.Watered {
			summary.WateredToday++
		}
		if day.Fertilized {
			summary.FertilizedToday++
		}
		if day.Harvested {
			summary.HarvestedToday++
		}
		if day.Watered && day.Fertilized && !day.Harvested {
			summary.ReadyToHarvest++
		}
	}

	summary.NeedWatering = summary.TotalPlants - summary.WateredToday
	summary.NeedFertilizing = summary.TotalPlants - summary.FertilizedToday
	return summary
}
