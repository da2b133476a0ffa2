package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有MES表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 主数据
		&Supplier{},
		&Product{},
		&InventoryItem{},
		&BillOfMaterial{},
		&WorkCenter{},
		&Machine{},
		&Shift{},
		&Employee{},

		// 时序数据
		&WorkOrder{},
		&QualityControlCheck{},
		&Defect{},
		&Downtime{},
		&OEEMetric{},
		&MaterialConsumption{},
		&InventoryShortage{},

		// 运行元数据
		&SimulationRun{},
	)
}

// ContractTables 对外 SQL 消费方依赖的表名，refresh 前逐一校验
var ContractTables = []string{
	"Suppliers",
	"Products",
	"Inventory",
	"BillOfMaterials",
	"WorkCenters",
	"Machines",
	"Shifts",
	"Employees",
	"WorkOrders",
	"QualityControl",
	"Defects",
	"Downtimes",
	"OEEMetrics",
	"MaterialConsumption",
}
