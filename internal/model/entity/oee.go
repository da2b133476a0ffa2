package entity

import "time"

// OEEMetric 每机台每历史日一条。OEE = Availability × Performance × Quality
type OEEMetric struct {
	MetricID              int       `json:"metric_id" gorm:"primaryKey;autoIncrement:false"`
	MachineID             int       `json:"machine_id" gorm:"not null;index"`
	Date                  time.Time `json:"date" gorm:"not null;index"`
	Availability          float64   `json:"availability"`
	Performance           float64   `json:"performance"`
	Quality               float64   `json:"quality"`
	OEE                   float64   `json:"oee"`
	PlannedProductionTime int       `json:"planned_production_time"` // 分钟
	ActualProductionTime  int       `json:"actual_production_time"`
	Downtime              int       `json:"downtime"`

	Machine *Machine `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
}

func (OEEMetric) TableName() string {
	return "OEEMetrics"
}
