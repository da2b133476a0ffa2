package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/bitfantasy/mes-sim/internal/model/entity"
)

// 参数默认值
const (
	DefaultLookbackDays  = 90
	DefaultLookaheadDays = 14
	DefaultMode          = entity.ModeAuto
)

// ValidationError 配置校验失败，任何 I/O 之前上抛
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Params 一次生成运行的参数集
type Params struct {
	LookbackDays  int
	LookaheadDays int
	Mode          string
	Seed          int64
	SeedSet       bool // 未显式给种子时运行不可复现
	PoolsPath     string
	StorePath     string
	Anchor        time.Time // 模拟“今天”，零值取墙上时钟
}

// AnchorOrNow 锚点时刻，未注入时取当前时间
func (p *Params) AnchorOrNow() time.Time {
	if p.Anchor.IsZero() {
		return time.Now().UTC()
	}
	return p.Anchor
}

// Validate 校验参数，无副作用
func (p *Params) Validate() error {
	if p.LookbackDays < 0 {
		return &ValidationError{Field: "lookback", Reason: "must be >= 0"}
	}
	if p.LookaheadDays < 0 {
		return &ValidationError{Field: "lookahead", Reason: "must be >= 0"}
	}
	switch p.Mode {
	case entity.ModeCreate, entity.ModeRefresh, entity.ModeAuto:
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("%q is not one of create|refresh|auto", p.Mode)}
	}
	if p.PoolsPath == "" {
		return &ValidationError{Field: "config", Reason: "value-pool document path is required"}
	}
	if p.StorePath == "" {
		return &ValidationError{Field: "store", Reason: "store path is required"}
	}
	return nil
}

// ProductPool 产品目录条目
type ProductPool struct {
	Name        string             `mapstructure:"name"`
	Description string             `mapstructure:"description"`
	Level       string             `mapstructure:"level"`
	Components  map[string]float64 `mapstructure:"components"` // BOM：组件名 -> 用量
}

// SupplierPool 供应商条目
type SupplierPool struct {
	Name     string `mapstructure:"name"`
	LeadTime int    `mapstructure:"lead_time"`
}

// WorkCenterPool 工作中心条目
type WorkCenterPool struct {
	Name         string   `mapstructure:"name"`
	Description  string   `mapstructure:"description"`
	Capacity     float64  `mapstructure:"capacity"`
	CapacityUOM  string   `mapstructure:"capacity_uom"`
	MachineTypes []string `mapstructure:"machine_types"`
}

// MachineTypePool 机型条目
type MachineTypePool struct {
	Name        string  `mapstructure:"name"`
	CapacityMin float64 `mapstructure:"capacity_min"`
	CapacityMax float64 `mapstructure:"capacity_max"`
	UOM         string  `mapstructure:"uom"`
}

// ShiftPool 班次定义
type ShiftPool struct {
	Name       string  `mapstructure:"name"`
	Start      string  `mapstructure:"start"`
	End        string  `mapstructure:"end"`
	Multiplier float64 `mapstructure:"multiplier"`
	Weekend    bool    `mapstructure:"weekend"`
}

// Range 闭区间
type Range struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// Distributions 模拟分布参数
type Distributions struct {
	EmployeeCount       int     `mapstructure:"employee_count"`
	DowntimeBaseRate    float64 `mapstructure:"downtime_base_rate"`
	DefectBaseRate      float64 `mapstructure:"defect_base_rate"`
	ConsumptionVariance float64 `mapstructure:"consumption_variance"`
	WeekendUtilization  float64 `mapstructure:"weekend_utilization"`
	WeekdayUtilization  float64 `mapstructure:"weekday_utilization"`
	MaxOrdersPerDay     int     `mapstructure:"max_orders_per_day"`
	VarianceFlagPercent float64 `mapstructure:"variance_flag_percent"`
	ReplenishMultiple   float64 `mapstructure:"replenish_multiple"`
}

// Pools 取值池文档（YAML 或 JSON），生成器的全部素材来源
type Pools struct {
	Products         []ProductPool       `mapstructure:"products"`
	InventoryNames   []string            `mapstructure:"inventory_names"`
	Suppliers        []SupplierPool      `mapstructure:"suppliers"`
	WorkCenters      []WorkCenterPool    `mapstructure:"work_centers"`
	MachineTypes     []MachineTypePool   `mapstructure:"machine_types"`
	Shifts           []ShiftPool         `mapstructure:"shifts"`
	DowntimeReasons  map[string][]string `mapstructure:"downtime_reasons"`
	DefectTypes      map[string][]string `mapstructure:"defect_types"`
	QCComments       map[string][]string `mapstructure:"qc_comments"`
	StorageLocations []string            `mapstructure:"storage_locations"`
	CostRanges       map[string]Range    `mapstructure:"cost_ranges"`
	HourlyRateRange  Range               `mapstructure:"employee_hourly_rate_range"`
	LeadTimeRange    Range               `mapstructure:"lead_time_range"`
	Dist             Distributions       `mapstructure:"distributions"`
}

// LoadPools 读取并校验取值池文档
func LoadPools(path string) (*Pools, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, &ValidationError{Field: "config", Reason: fmt.Sprintf("failed to read value-pool document: %v", err)}
	}

	var pools Pools
	if err := v.Unmarshal(&pools); err != nil {
		return nil, &ValidationError{Field: "config", Reason: fmt.Sprintf("failed to unmarshal value-pool document: %v", err)}
	}

	if err := pools.Validate(); err != nil {
		return nil, err
	}
	return &pools, nil
}

// Validate 必需类别缺失即失败
func (p *Pools) Validate() error {
	if len(p.Products) == 0 {
		return &ValidationError{Field: "products", Reason: "value-pool document omits product catalog"}
	}
	if len(p.InventoryNames) == 0 {
		return &ValidationError{Field: "inventory_names", Reason: "value-pool document omits inventory names"}
	}
	if len(p.Suppliers) == 0 {
		return &ValidationError{Field: "suppliers", Reason: "value-pool document omits supplier list"}
	}
	if len(p.WorkCenters) == 0 {
		return &ValidationError{Field: "work_centers", Reason: "value-pool document omits work centers"}
	}
	if len(p.MachineTypes) == 0 {
		return &ValidationError{Field: "machine_types", Reason: "value-pool document omits machine type catalog"}
	}
	if len(p.Shifts) == 0 {
		return &ValidationError{Field: "shifts", Reason: "value-pool document omits shift definitions"}
	}
	if len(p.DowntimeReasons[entity.DowntimePlanned]) == 0 || len(p.DowntimeReasons[entity.DowntimeUnplanned]) == 0 {
		return &ValidationError{Field: "downtime_reasons", Reason: "value-pool document must define planned and unplanned reasons"}
	}
	if len(p.DefectTypes) == 0 {
		return &ValidationError{Field: "defect_types", Reason: "value-pool document omits defect types"}
	}
	for _, level := range []string{entity.LevelRawMaterial, entity.LevelComponent, entity.LevelSubassembly, entity.LevelFinishedProduct} {
		found := false
		for _, prod := range p.Products {
			if prod.Level == level {
				found = true
				break
			}
		}
		if !found {
			return &ValidationError{Field: "products", Reason: fmt.Sprintf("product catalog has no %q entries", level)}
		}
	}
	for _, prod := range p.Products {
		switch prod.Level {
		case entity.LevelRawMaterial, entity.LevelComponent, entity.LevelSubassembly, entity.LevelFinishedProduct:
		default:
			return &ValidationError{Field: "products", Reason: fmt.Sprintf("product %q has unknown level %q", prod.Name, prod.Level)}
		}
		for name, qty := range prod.Components {
			if qty <= 0 {
				return &ValidationError{Field: "products", Reason: fmt.Sprintf("product %q component %q quantity must be positive", prod.Name, name)}
			}
		}
	}
	if p.Dist.WeekdayUtilization <= 0 || p.Dist.WeekdayUtilization > 1 {
		return &ValidationError{Field: "distributions", Reason: "weekday_utilization must be in (0,1]"}
	}
	if p.Dist.WeekendUtilization <= 0 || p.Dist.WeekendUtilization > 1 {
		return &ValidationError{Field: "distributions", Reason: "weekend_utilization must be in (0,1]"}
	}
	if p.Dist.EmployeeCount <= 0 {
		return &ValidationError{Field: "distributions", Reason: "employee_count must be positive"}
	}
	return nil
}
