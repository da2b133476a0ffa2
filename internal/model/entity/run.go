package entity

import "time"

// 运行模式
const (
	ModeCreate  = "create"
	ModeRefresh = "refresh"
	ModeAuto    = "auto"
)

// SimulationRun 生成运行元数据。refresh 依赖上一次运行的种子和窗口边界
type SimulationRun struct {
	RunID       int       `json:"run_id" gorm:"primaryKey;autoIncrement:false"`
	Seed        int64     `json:"seed" gorm:"not null"`
	Mode        string    `json:"mode" gorm:"size:16;not null"`
	WindowStart time.Time `json:"window_start" gorm:"not null"` // 含
	WindowEnd   time.Time `json:"window_end" gorm:"not null"`   // 不含
	Anchor      time.Time `json:"anchor" gorm:"not null"`       // 模拟“今天”
	CreatedAt   time.Time `json:"created_at"`
}

func (SimulationRun) TableName() string {
	return "SimulationRuns"
}
