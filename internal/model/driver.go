package model

// 司机状态
const (
	DriverStatusActive   = "Active"
	DriverStatusInactive = "Inactive"
	DriverStatusOnLeave  = "OnLeave"
)

// Driver 司机，对应 drivers
type Driver struct {
	SoftDeleteEntity
	Name          string `gorm:"type:varchar(100);not null"           json:"name"`
	LicenseNumber string `gorm:"type:varchar(30);not null;uniqueIndex" json:"license_number"`
	LicenseClass  string `gorm:"type:varchar(10)"                     json:"license_class"`
	Phone         string `gorm:"type:varchar(20)"                     json:"phone"`
	Email         string `gorm:"type:varchar(255)"                    json:"email"`
	Status        string `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	HireDate      *Date  `json:"hire_date,omitempty"`
}

// TableName 指定表名
func (Driver) TableName() string { return "drivers" }
