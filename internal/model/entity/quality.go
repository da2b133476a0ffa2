package entity

import "time"

// 质检结果
const (
	QCResultPass   = "pass"
	QCResultRework = "rework"
	QCResultFail   = "fail"
)

// QualityControlCheck 质检记录，与完工或在制工单一对一
type QualityControlCheck struct {
	CheckID     int       `json:"check_id" gorm:"primaryKey;autoIncrement:false"`
	OrderID     int       `json:"order_id" gorm:"not null;uniqueIndex"`
	Date        time.Time `json:"date" gorm:"not null;index"`
	Result      string    `json:"result" gorm:"size:16"`
	Comments    string    `json:"comments" gorm:"size:500"`
	DefectRate  float64   `json:"defect_rate"`
	ReworkRate  float64   `json:"rework_rate"`
	YieldRate   float64   `json:"yield_rate"`
	InspectorID int       `json:"inspector_id"`

	Order     *WorkOrder `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Inspector *Employee  `json:"inspector,omitempty" gorm:"foreignKey:InspectorID"`
	Defects   []Defect   `json:"defects,omitempty" gorm:"foreignKey:CheckID"`
}

func (QualityControlCheck) TableName() string {
	return "QualityControl"
}

// Defect 缺陷明细，归属唯一一条质检记录
type Defect struct {
	DefectID    int    `json:"defect_id" gorm:"primaryKey;autoIncrement:false"`
	CheckID     int    `json:"check_id" gorm:"not null;index"`
	DefectType  string `json:"defect_type" gorm:"size:64;not null"`
	Severity    int    `json:"severity"` // 1-5
	Quantity    int    `json:"quantity" gorm:"default:1"`
	Location    string `json:"location" gorm:"size:32"`
	RootCause   string `json:"root_cause" gorm:"size:64"`
	ActionTaken string `json:"action_taken" gorm:"size:64"`

	Check *QualityControlCheck `json:"check,omitempty" gorm:"foreignKey:CheckID"`
}

func (Defect) TableName() string {
	return "Defects"
}
