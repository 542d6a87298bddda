package dto

// ── 维修保养模块 DTO ──

// MaintenanceRecordRequest 新增 / 修改维修记录请求
type MaintenanceRecordRequest struct {
	VehicleID   uint    `json:"vehicle_id"  validate:"required"`
	Date        string  `json:"date"`
	Category    string  `json:"category"    validate:"required,oneof='Oil Change' Tires Brakes Inspection Repair Other"`
	Description string  `json:"description" validate:"max=500"`
	Vendor      string  `json:"vendor"      validate:"max=100"`
	Cost        float64 `json:"cost"        validate:"gte=0"`
	Odometer    int     `json:"odometer"    validate:"gte=0"`
}

// MaintenanceCostRequest 维修费用汇总查询参数
type MaintenanceCostRequest struct {
	DateRangeRequest
	VehicleID uint `form:"vehicle_id"`
}

// MaintenanceRecordResponse 维修记录响应
type MaintenanceRecordResponse struct {
	ID          uint    `json:"id"`
	VehicleID   uint    `json:"vehicle_id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Vendor      string  `json:"vendor,omitempty"`
	Cost        float64 `json:"cost"`
	Odometer    int     `json:"odometer"`
	AuditResponse
}

// MaintenanceCostResponse 维修费用汇总
type MaintenanceCostResponse struct {
	VehicleID  uint               `json:"vehicle_id,omitempty"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Records    int                `json:"records"`
	TotalCost  float64            `json:"total_cost"`
	ByCategory map[string]float64 `json:"by_category"`
}
