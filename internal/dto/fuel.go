package dto

// ── 加油记录模块 DTO ──

// CreateFuelRecordRequest 新增加油记录请求
type CreateFuelRecordRequest struct {
	VehicleID      uint    `json:"vehicle_id"       validate:"required"`
	Date           string  `json:"date"`
	Gallons        float64 `json:"gallons"          validate:"gt=0"`
	PricePerGallon float64 `json:"price_per_gallon" validate:"gte=0"`
	Odometer       int     `json:"odometer"         validate:"gte=0"`
	Location       string  `json:"location"         validate:"max=100"`
	FuelType       string  `json:"fuel_type"        validate:"omitempty,oneof=Diesel Gasoline Propane Electric"`
}

// FuelSummaryRequest 油耗汇总查询参数；VehicleID 为 0 表示全部车辆
type FuelSummaryRequest struct {
	DateRangeRequest
	VehicleID uint `form:"vehicle_id"`
}

// FuelRecordResponse 加油记录响应
type FuelRecordResponse struct {
	ID             uint    `json:"id"`
	VehicleID      uint    `json:"vehicle_id"`
	Date           string  `json:"date"`
	Gallons        float64 `json:"gallons"`
	PricePerGallon float64 `json:"price_per_gallon"`
	TotalCost      float64 `json:"total_cost"`
	Odometer       int     `json:"odometer"`
	Location       string  `json:"location,omitempty"`
	FuelType       string  `json:"fuel_type"`
	AuditResponse
}

// FuelSummaryResponse 油耗汇总
type FuelSummaryResponse struct {
	VehicleID           uint    `json:"vehicle_id,omitempty"`
	From                string  `json:"from"`
	To                  string  `json:"to"`
	Records             int     `json:"records"`
	TotalGallons        float64 `json:"total_gallons"`
	TotalCost           float64 `json:"total_cost"`
	AveragePricePerUnit float64 `json:"average_price_per_gallon"`
}
