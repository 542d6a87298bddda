package model

// MaintenanceRecord 维修保养记录，对应 maintenance_records
type MaintenanceRecord struct {
	SoftDeleteEntity
	VehicleID   uint    `gorm:"not null;index"            json:"vehicle_id"`
	Date        Date    `gorm:"not null"                  json:"date"`
	Category    string  `gorm:"type:varchar(50);not null" json:"category"` // Oil Change | Tires | Brakes | Inspection | Repair | Other
	Description string  `gorm:"type:varchar(500)"         json:"description"`
	Vendor      string  `gorm:"type:varchar(100)"         json:"vendor"`
	Cost        float64 `gorm:"not null;default:0"        json:"cost"`
	Odometer    int     `gorm:"not null;default:0"        json:"odometer"`
}

// TableName 指定表名
func (MaintenanceRecord) TableName() string { return "maintenance_records" }

// AllModels 返回所有需要建表的模型，供 AutoMigrate 与测试使用
func AllModels() []interface{} {
	return []interface{}{
		&Bus{},
		&Driver{},
		&Route{},
		&Student{},
		&Activity{},
		&FuelRecord{},
		&MaintenanceRecord{},
	}
}
