package entity

import "time"

// 员工角色
const (
	RoleOperator       = "Operator"
	RoleTechnician     = "Technician"
	RoleQualityControl = "Quality Control"
	RoleManager        = "Manager"
	RoleEngineer       = "Engineer"
)

// Shift 班次。Multiplier 是关联引擎使用的绩效系数
type Shift struct {
	ShiftID    int     `json:"shift_id" gorm:"primaryKey;autoIncrement:false"`
	Name       string  `json:"name" gorm:"size:64;not null"`
	StartTime  string  `json:"start_time" gorm:"size:8;not null"` // HH:MM
	EndTime    string  `json:"end_time" gorm:"size:8;not null"`
	Multiplier float64 `json:"multiplier" gorm:"not null"`
	IsWeekend  bool    `json:"is_weekend" gorm:"default:false"`
}

func (Shift) TableName() string {
	return "Shifts"
}

// Employee 员工，班次在创建时固定
type Employee struct {
	EmployeeID int       `json:"employee_id" gorm:"primaryKey;autoIncrement:false"`
	Name       string    `json:"name" gorm:"size:255;not null"`
	Role       string    `json:"role" gorm:"size:32;index"`
	ShiftID    int       `json:"shift_id" gorm:"not null;index"`
	HourlyRate float64   `json:"hourly_rate" gorm:"not null"`
	Skills     string    `json:"skills" gorm:"size:500"`
	HireDate   time.Time `json:"hire_date"`

	Shift *Shift `json:"shift,omitempty" gorm:"foreignKey:ShiftID"`
}

func (Employee) TableName() string {
	return "Employees"
}
