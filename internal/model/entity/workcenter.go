package entity

import "time"

// 机台状态
const (
	MachineRunning     = "running"
	MachineIdle        = "idle"
	MachineMaintenance = "maintenance"
	MachineDown        = "down"
)

// WorkCenter 工作中心
type WorkCenter struct {
	WorkCenterID int     `json:"work_center_id" gorm:"primaryKey;autoIncrement:false"`
	Name         string  `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Description  string  `json:"description" gorm:"type:text"`
	Capacity     float64 `json:"capacity" gorm:"not null"`
	CapacityUOM  string  `json:"capacity_uom" gorm:"size:32;not null"`
	CostPerHour  float64 `json:"cost_per_hour" gorm:"not null"`
	Location     string  `json:"location" gorm:"size:64"`
	IsBottleneck bool    `json:"is_bottleneck" gorm:"default:false"`
	IsActive     bool    `json:"is_active" gorm:"default:true"`

	Machines []Machine `json:"machines,omitempty" gorm:"foreignKey:WorkCenterID"`
}

func (WorkCenter) TableName() string {
	return "WorkCenters"
}

// Machine 机台。效率因子在两次保养之间单调衰减，保养后复位
type Machine struct {
	MachineID             int       `json:"machine_id" gorm:"primaryKey;autoIncrement:false"`
	Name                  string    `json:"name" gorm:"size:255;not null"`
	Type                  string    `json:"type" gorm:"size:64;index"`
	WorkCenterID          int       `json:"work_center_id" gorm:"not null;index"`
	Status                string    `json:"status" gorm:"size:16;not null"`
	NominalCapacity       float64   `json:"nominal_capacity" gorm:"not null"`
	CapacityUOM           string    `json:"capacity_uom" gorm:"size:32;not null"`
	SetupTime             int       `json:"setup_time" gorm:"not null"` // 分钟
	EfficiencyFactor      float64   `json:"efficiency_factor" gorm:"not null"`
	MaintenanceFrequency  int       `json:"maintenance_frequency" gorm:"not null"` // 小时
	LastMaintenanceDate   time.Time `json:"last_maintenance_date"`
	NextMaintenanceDate   time.Time `json:"next_maintenance_date"`
	ProductChangeoverTime int       `json:"product_changeover_time" gorm:"not null"`
	CostPerHour           float64   `json:"cost_per_hour" gorm:"not null"`
	InstallationDate      time.Time `json:"installation_date"`
	ModelNumber           string    `json:"model_number" gorm:"size:32"`

	WorkCenter *WorkCenter `json:"work_center,omitempty" gorm:"foreignKey:WorkCenterID"`
}

func (Machine) TableName() string {
	return "Machines"
}
