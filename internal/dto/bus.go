package dto

// ── 车辆模块 DTO ──

// BusRequest 新增 / 修改车辆请求
type BusRequest struct {
	BusNumber          string `json:"bus_number"           validate:"required,max=20"`
	Year               int    `json:"year"                 validate:"min=1950,max=2100"`
	Make               string `json:"make"                 validate:"required,max=50"`
	Model              string `json:"model"                validate:"required,max=50"`
	SeatingCapacity    int    `json:"seating_capacity"     validate:"min=1,max=100"`
	VIN                string `json:"vin"                  validate:"omitempty,len=17,alphanum"`
	LicenseNumber      string `json:"license_number"       validate:"max=20"`
	Status             string `json:"status"               validate:"omitempty,oneof=Active Maintenance OutOfService"`
	CurrentOdometer    int    `json:"current_odometer"     validate:"min=0"`
	LastInspectionDate string `json:"last_inspection_date"`
}

// BusListRequest 车辆列表查询参数
type BusListRequest struct {
	AvailableOnly bool `form:"available_only"`
}

// BusResponse 车辆响应
type BusResponse struct {
	ID                 uint    `json:"id"`
	BusNumber          string  `json:"bus_number"`
	Year               int     `json:"year"`
	Make               string  `json:"make"`
	Model              string  `json:"model"`
	SeatingCapacity    int     `json:"seating_capacity"`
	VIN                string  `json:"vin,omitempty"`
	LicenseNumber      string  `json:"license_number,omitempty"`
	Status             string  `json:"status"`
	IsAvailable        bool    `json:"is_available"`
	CurrentOdometer    int     `json:"current_odometer"`
	LastInspectionDate *string `json:"last_inspection_date,omitempty"`
	IsDeleted          bool    `json:"is_deleted"`
	AuditResponse
}
