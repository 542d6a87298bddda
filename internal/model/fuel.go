package model

// FuelRecord 加油记录，对应 fuel_records
// 只嵌入 BaseEntity：加油流水不支持软删除，删除即物理删除。
type FuelRecord struct {
	BaseEntity
	VehicleID      uint    `gorm:"not null;index"   json:"vehicle_id"`
	Date           Date    `gorm:"not null"         json:"date"`
	Gallons        float64 `gorm:"not null"         json:"gallons"`
	PricePerGallon float64 `gorm:"not null"         json:"price_per_gallon"`
	Odometer       int     `gorm:"not null"         json:"odometer"`
	Location       string  `gorm:"type:varchar(100)" json:"location"`
	FuelType       string  `gorm:"type:varchar(20);not null;default:'Diesel'" json:"fuel_type"`
}

// TableName 指定表名
func (FuelRecord) TableName() string { return "fuel_records" }

// TotalCost 本次加油金额
func (f *FuelRecord) TotalCost() float64 {
	return f.Gallons * f.PricePerGallon
}
