package model

// 车辆状态
const (
	BusStatusActive       = "Active"
	BusStatusMaintenance  = "Maintenance"
	BusStatusOutOfService = "OutOfService"
)

// Bus 校车，对应 buses
type Bus struct {
	SoftDeleteEntity
	BusNumber          string `gorm:"type:varchar(20);not null;uniqueIndex" json:"bus_number"`
	Year               int    `gorm:"not null"                              json:"year"`
	Make               string `gorm:"type:varchar(50);not null"             json:"make"`
	Model              string `gorm:"type:varchar(50);not null"             json:"model"`
	SeatingCapacity    int    `gorm:"not null"                              json:"seating_capacity"`
	VIN                string `gorm:"column:vin;type:varchar(17)"           json:"vin"`
	LicenseNumber      string `gorm:"type:varchar(20)"                      json:"license_number"`
	Status             string `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	IsAvailable        bool   `gorm:"not null"                              json:"is_available"`
	CurrentOdometer    int    `gorm:"not null;default:0"                    json:"current_odometer"`
	LastInspectionDate *Date  `json:"last_inspection_date,omitempty"`
}

// TableName 指定表名
func (Bus) TableName() string { return "buses" }
