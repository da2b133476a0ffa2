package entity

import "time"

// 停机类别
const (
	DowntimePlanned   = "planned"
	DowntimeUnplanned = "unplanned"
)

// 计划停机里属于保养的原因，触发效率因子复位
const (
	ReasonScheduledMaintenance = "Scheduled Maintenance"
	ReasonQuickService         = "Quick Service"
)

// Downtime 停机事件。非计划停机削减机台当天的可动率
type Downtime struct {
	DowntimeID  int       `json:"downtime_id" gorm:"primaryKey;autoIncrement:false"`
	MachineID   int       `json:"machine_id" gorm:"not null;index"`
	OrderID     *int      `json:"order_id" gorm:"index"`
	StartTime   time.Time `json:"start_time" gorm:"not null;index"`
	EndTime     time.Time `json:"end_time"`
	Duration    int       `json:"duration" gorm:"not null"` // 分钟，>0
	Reason      string    `json:"reason" gorm:"size:64;not null"`
	Category    string    `json:"category" gorm:"size:16;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ReportedBy  int       `json:"reported_by"`

	Machine  *Machine   `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
	Order    *WorkOrder `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Reporter *Employee  `json:"reporter,omitempty" gorm:"foreignKey:ReportedBy"`
}

func (Downtime) TableName() string {
	return "Downtimes"
}
