package entity

import "time"

// MaterialConsumption 工单物料消耗。实际消耗量在生成期内从库存现存量扣减
type MaterialConsumption struct {
	ConsumptionID   int       `json:"consumption_id" gorm:"primaryKey;autoIncrement:false"`
	OrderID         int       `json:"order_id" gorm:"not null;index"`
	ItemID          int       `json:"item_id" gorm:"not null;index"`
	PlannedQuantity float64   `json:"planned_quantity" gorm:"not null"`
	ActualQuantity  float64   `json:"actual_quantity"`
	VariancePercent float64   `json:"variance_percent"`
	ConsumptionDate time.Time `json:"consumption_date" gorm:"index"`
	LotNumber       string    `json:"lot_number" gorm:"size:64"`

	Order *WorkOrder     `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Item  *InventoryItem `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (MaterialConsumption) TableName() string {
	return "MaterialConsumption"
}
