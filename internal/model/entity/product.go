package entity

// 产品层级
const (
	LevelRawMaterial     = "Raw Material"
	LevelComponent       = "Component"
	LevelSubassembly     = "Subassembly"
	LevelFinishedProduct = "Finished Product"
)

// Product 产品主数据
type Product struct {
	ProductID           int     `json:"product_id" gorm:"primaryKey;autoIncrement:false"`
	Name                string  `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Description         string  `json:"description" gorm:"type:text"`
	Category            string  `json:"category" gorm:"size:64"`
	Level               string  `json:"level" gorm:"size:32;not null"`
	Cost                float64 `json:"cost" gorm:"not null"`
	StandardProcessTime float64 `json:"standard_process_time"`
	IsActive            bool    `json:"is_active" gorm:"default:true"`

	Components []BillOfMaterial `json:"components,omitempty" gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "Products"
}

// BillOfMaterial BOM行：一个产品消耗一种库存物料
type BillOfMaterial struct {
	BOMID       int     `json:"bom_id" gorm:"primaryKey;autoIncrement:false"`
	ProductID   int     `json:"product_id" gorm:"not null;index"`
	ComponentID int     `json:"component_id" gorm:"not null;index"`
	Quantity    float64 `json:"quantity" gorm:"not null"`
	ScrapFactor float64 `json:"scrap_factor" gorm:"default:0"`

	Product   *Product       `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Component *InventoryItem `json:"component,omitempty" gorm:"foreignKey:ComponentID"`
}

func (BillOfMaterial) TableName() string {
	return "BillOfMaterials"
}
