// Package status 维护植物的每日照护记录（浇水 / 施肥 / 收获），
// 并基于这些记录计算仪表盘统计。
package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout 是状态记录使用的日期格式，也是持久化数据中的键格式。
const DateLayout = "2006-01-02"

// Field 表示单日记录中的一个可更新字段。
type Field string

const (
	Watered    Field = "watered"
	Fertilized Field = "fertilized"
	Harvested  Field = "harvested"
)

// Fields 按固定顺序列出全部可识别字段
var Fields = []Field{Watered, Fertilized, Harvested}

var (
	// ErrValidation 是所有输入校验失败的根错误
	ErrValidation = errors.New("validation failed")
	// ErrUnknownField 在字段名不属于 watered/fertilized/harvested 时返回
	ErrUnknownField = fmt.Errorf("%w: unknown status field", ErrValidation)
	// ErrInvalidDate 在日期为空或不是 YYYY-MM-DD 时返回
	ErrInvalidDate = fmt.Errorf("%w: invalid date", ErrValidation)
)

// ParseField 校验并返回字段名，只接受三个固定名称（大小写敏感）。
func ParseField(name string) (Field, error) {
	f := Field(strings.TrimSpace(name))
	switch f {
	case Watered, Fertilized, Harvested:
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownField, name)
}

// ValidateDate 要求日期为合法的 YYYY-MM-DD 日历日期。
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	if len(date) != len(DateLayout) {
		return fmt.Errorf("%w %q", ErrInvalidDate, date)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidDate, date)
	}
	return nil
}

// DayStatus 是某株植物在某一天的照护记录，零值即全部为 false。
type DayStatus struct {
	Watered    bool `json:"watered"`
	Fertilized bool `json:"fertilized"`
	Harvested  bool `json:"harvested"`
}

// Get 返回指定字段的值
func (d DayStatus) Get(f Field) bool {
	switch f {
	case Watered:
		return d.Watered
	case Fertilized:
		return d.Fertilized
	case Harvested:
		return d.Harvested
	}
	return false
}

func (d DayStatus) with(f Field, value bool) DayStatus {
	switch f {
	case Watered:
		d.Watered = value
	case Fertilized:
		d.Fertilized = value
	case Harvested:
		d.Harvested = value
	}
	return d
}

// Store 以日期为键保存单株植物的全部每日记录。
// 未写入过的日期不存在于 map 中，而不是以默认值存在。
type Store map[string]DayStatus

// Day 返回某日记录；ok 为 false 表示该日期从未写入。
func (s Store) Day(date string) (DayStatus, bool) {
	d, ok := s[date]
	return d, ok
}

// Clone 返回独立副本，nil 被复制为空 map。
func (s Store) Clone() Store {
	out := make(Store, len(s))
	for date, day := range s {
		out[date] = day
	}
	return out
}

// Apply 将单个字段更新合并到指定日期，返回新的 Store，接收者本身不被修改。
//
// 日期不存在时先以全 false 创建记录再设置字段；已存在时只改动该字段。
// 校验失败时不产生任何副作用。
//
// 调用方负责持久化所属植物。整条植物记录按"读取-合并-写回"处理，
// 并发更新同一植物时后写入者覆盖先写入者，包括对方改动的其他单元格。
func (s Store) Apply(date, field string, value bool) (Store, error) {
	if err := ValidateDate(date); err != nil {
		return s, err
	}
	f, err := ParseField(field)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	next[date] = next[date].with(f, value)
	return next, nil
}

// Validate 检查所有键都是合法日期，用于整体替换 status 的场景。
func (s Store) Validate() error {
	for date := range s {
		if err := ValidateDate(date); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON 保证 nil Store 输出为 {}，与历史数据保持一致。
func (s Store) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]DayStatus(s))
}

// UnmarshalJSON 宽松解析持久化数据：
// 非对象整体视为空；单日值不是对象时丢弃；字段不是布尔值时按 false 处理；未知键忽略。
func (s *Store) UnmarshalJSON(data []byte) error {
	out := Store{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = out
		return nil
	}

	for date, value := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(value, &fields); err != nil || fields == nil {
			continue
		}
		var day DayStatus
		for _, f := range Fields {
			day = day.with(f, readBool(fields[string(f)]))
		}
		out[date] = day
	}

	*s = out
	return nil
}

func readBool(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return bytes.Equal(raw, []byte("true"))
}
