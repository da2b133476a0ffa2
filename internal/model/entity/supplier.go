package entity

// Supplier 供应商主数据，创建后只读，被多条库存记录引用
type Supplier struct {
	SupplierID       int     `json:"supplier_id" gorm:"primaryKey;autoIncrement:false"`
	Name             string  `json:"name" gorm:"size:255;not null"`
	LeadTime         int     `json:"lead_time" gorm:"not null"` // 交货周期（天）
	ReliabilityScore float64 `json:"reliability_score"`
	ContactInfo      string  `json:"contact_info" gorm:"size:500"`
}

func (Supplier) TableName() string {
	return "Suppliers"
}
