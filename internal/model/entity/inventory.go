package entity

import "time"

// 物料类别
const (
	MaterialRaw        = "Raw Material"
	MaterialElectronic = "Electronic Component"
	MaterialMechanical = "Mechanical Component"
	MaterialAssembly   = "Assembly"
	MaterialMRO        = "MRO"
)

// InventoryItem 库存物料
type InventoryItem struct {
	ItemID           int       `json:"item_id" gorm:"primaryKey;autoIncrement:false"`
	Name             string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Category         string    `json:"category" gorm:"size:64"`
	Quantity         int       `json:"quantity" gorm:"not null"`      // 现存量，不得为负
	ReorderLevel     int       `json:"reorder_level" gorm:"not null"` // 再订货点
	SupplierID       int       `json:"supplier_id" gorm:"index"`
	LeadTime         int       `json:"lead_time" gorm:"not null"`
	Cost             float64   `json:"cost" gorm:"not null"`
	LotNumber        string    `json:"lot_number" gorm:"size:64"`
	Location         string    `json:"location" gorm:"size:64"`
	LastReceivedDate time.Time `json:"last_received_date"`

	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (InventoryItem) TableName() string {
	return "Inventory"
}

// InventoryShortage 缺料事件：某物料当天现存量跌破再订货点
type InventoryShortage struct {
	ShortageID   int       `json:"shortage_id" gorm:"primaryKey;autoIncrement:false"`
	ItemID       int       `json:"item_id" gorm:"not null;index"`
	Date         time.Time `json:"date" gorm:"not null;index"`
	Quantity     int       `json:"quantity" gorm:"not null"` // 触发时的现存量
	ReorderLevel int       `json:"reorder_level" gorm:"not null"`

	Item *InventoryItem `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (InventoryShortage) TableName() string {
	return "InventoryShortages"
}
