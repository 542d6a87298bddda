package model

// 活动状态
const (
	ActivityStatusScheduled = "Scheduled"
	ActivityStatusCompleted = "Completed"
	ActivityStatusCancelled = "Cancelled"
)

// Activity 排班活动（校外活动、体育赛事等用车行程），对应 activities
// 冲突检测以 (VehicleID | DriverID, Date, [StartTime, EndTime)) 为占用单位。
type Activity struct {
	SoftDeleteEntity
	ActivityType string    `gorm:"type:varchar(50);not null"     json:"activity_type"`
	Destination  string    `gorm:"type:varchar(200)"             json:"destination"`
	Description  string    `gorm:"type:varchar(500)"             json:"description"`
	RequestedBy  string    `gorm:"type:varchar(100)"             json:"requested_by"`
	Date         Date      `gorm:"not null;index"                json:"date"`
	StartTime    TimeOfDay `gorm:"not null"                      json:"start_time"`
	EndTime      TimeOfDay `gorm:"not null"                      json:"end_time"`
	VehicleID    uint      `gorm:"not null;index"                json:"vehicle_id"`
	DriverID     uint      `gorm:"not null;index"                json:"driver_id"`
	RouteID      *uint     `json:"route_id,omitempty"`
	Status       string    `gorm:"type:varchar(20);not null;default:'Scheduled'" json:"status"`
}

// TableName 指定表名
func (Activity) TableName() string { return "activities" }
