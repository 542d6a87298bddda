package model

// Route 线路，对应 routes
// 一条线路在某一日期最多有上午 (AM) 与下午 (PM) 两段，每段占用一辆车与一名司机。
type Route struct {
	SoftDeleteEntity
	Name        string `gorm:"type:varchar(100);not null;index:idx_routes_name_date" json:"name"`
	Date        Date   `gorm:"not null;index:idx_routes_name_date"                    json:"date"`
	Description string `gorm:"type:varchar(500)"                                      json:"description"`
	IsActive    bool   `gorm:"not null"                                               json:"is_active"`

	AMVehicleID *uint      `gorm:"column:am_vehicle_id" json:"am_vehicle_id,omitempty"`
	AMDriverID  *uint      `gorm:"column:am_driver_id"  json:"am_driver_id,omitempty"`
	AMStartTime *TimeOfDay `gorm:"column:am_start_time" json:"am_start_time,omitempty"`
	AMEndTime   *TimeOfDay `gorm:"column:am_end_time"   json:"am_end_time,omitempty"`

	PMVehicleID *uint      `gorm:"column:pm_vehicle_id" json:"pm_vehicle_id,omitempty"`
	PMDriverID  *uint      `gorm:"column:pm_driver_id"  json:"pm_driver_id,omitempty"`
	PMStartTime *TimeOfDay `gorm:"column:pm_start_time" json:"pm_start_time,omitempty"`
	PMEndTime   *TimeOfDay `gorm:"column:pm_end_time"   json:"pm_end_time,omitempty"`
}

// TableName 指定表名
func (Route) TableName() string { return "routes" }

// RouteLeg 线路单段的占用信息
type RouteLeg struct {
	VehicleID uint
	DriverID  uint
	Start     TimeOfDay
	End       TimeOfDay
}

// AMLeg 返回上午段；未完整配置时 ok=false
func (r *Route) AMLeg() (RouteLeg, bool) {
	return buildLeg(r.AMVehicleID, r.AMDriverID, r.AMStartTime, r.AMEndTime)
}

// PMLeg 返回下午段；未完整配置时 ok=false
func (r *Route) PMLeg() (RouteLeg, bool) {
	return buildLeg(r.PMVehicleID, r.PMDriverID, r.PMStartTime, r.PMEndTime)
}

func buildLeg(vehicleID, driverID *uint, start, end *TimeOfDay) (RouteLeg, bool) {
	if vehicleID == nil || driverID == nil || start == nil || end == nil {
		return RouteLeg{}, false
	}
	return RouteLeg{VehicleID: *vehicleID, DriverID: *driverID, Start: *start, End: *end}, true
}
