package entity

import "time"

// 工单状态
const (
	WOStatusScheduled  = "scheduled"
	WOStatusInProgress = "in_progress"
	WOStatusCompleted  = "completed"
	WOStatusCancelled  = "cancelled"
)

// 完工数+报废数允许超出计划数的比例
const WOQuantityTolerance = 0.05

// WorkOrder 生产工单。实际时间在进入 in_progress 之前为空；
// 工单的机台必须属于其工作中心
type WorkOrder struct {
	OrderID          int        `json:"order_id" gorm:"primaryKey;autoIncrement:false"`
	ProductID        int        `json:"product_id" gorm:"not null;index"`
	WorkCenterID     int        `json:"work_center_id" gorm:"not null;index"`
	MachineID        int        `json:"machine_id" gorm:"not null;index"`
	EmployeeID       int        `json:"employee_id" gorm:"not null"`
	Quantity         int        `json:"quantity" gorm:"not null"`
	PlannedStartTime time.Time  `json:"planned_start_time" gorm:"not null;index"`
	PlannedEndTime   time.Time  `json:"planned_end_time" gorm:"not null"`
	ActualStartTime  *time.Time `json:"actual_start_time"`
	ActualEndTime    *time.Time `json:"actual_end_time"`
	Status           string     `json:"status" gorm:"size:16;not null;index"`
	Priority         int        `json:"priority" gorm:"not null"`
	LeadTime         int        `json:"lead_time" gorm:"not null"` // 小时
	LotNumber        string     `json:"lot_number" gorm:"size:64;index"`
	ActualProduction *int       `json:"actual_production"`
	Scrap            int        `json:"scrap" gorm:"default:0"`
	SetupTimeActual  *int       `json:"setup_time_actual"`

	Product    *Product    `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	WorkCenter *WorkCenter `json:"work_center,omitempty" gorm:"foreignKey:WorkCenterID"`
	Machine    *Machine    `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
	Employee   *Employee   `json:"employee,omitempty" gorm:"foreignKey:EmployeeID"`
}

func (WorkOrder) TableName() string {
	return "WorkOrders"
}
