package dto

// ── 司机模块 DTO ──

// DriverRequest 新增 / 修改司机请求
type DriverRequest struct {
	Name          string `json:"name"           validate:"required,max=100"`
	LicenseNumber string `json:"license_number" validate:"required,max=30"`
	LicenseClass  string `json:"license_class"  validate:"max=10"`
	Phone         string `json:"phone"          validate:"omitempty,phone"`
	Email         string `json:"email"          validate:"omitempty,email,max=255"`
	Status        string `json:"status"         validate:"omitempty,oneof=Active Inactive OnLeave"`
	HireDate      string `json:"hire_date"`
}

// DriverResponse 司机响应
type DriverResponse struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	LicenseNumber string  `json:"license_number"`
	LicenseClass  string  `json:"license_class,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Email         string  `json:"email,omitempty"`
	Status        string  `json:"status"`
	HireDate      *string `json:"hire_date,omitempty"`
	AuditResponse
}
