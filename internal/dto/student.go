package dto

// ── 学生模块 DTO ──

// StudentRequest 新增 / 修改学生请求
type StudentRequest struct {
	Name           string `json:"name"            validate:"required,max=100"`
	StudentNumber  string `json:"student_number"  validate:"max=20"`
	Grade          string `json:"grade"           validate:"max=10"`
	School         string `json:"school"          validate:"max=100"`
	HomeAddress    string `json:"home_address"    validate:"max=255"`
	HomePhone      string `json:"home_phone"      validate:"omitempty,phone"`
	ParentGuardian string `json:"parent_guardian" validate:"max=100"`
	EmergencyPhone string `json:"emergency_phone" validate:"omitempty,phone"`
	RouteID        *uint  `json:"route_id"`
	Active         *bool  `json:"active"`
}

// StudentListRequest 学生分页查询参数
type StudentListRequest struct {
	PaginationRequest
	Search string `form:"search" binding:"omitempty,max=100"`
}

// StudentResponse 学生响应
type StudentResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	StudentNumber  string `json:"student_number,omitempty"`
	Grade          string `json:"grade,omitempty"`
	School         string `json:"school,omitempty"`
	HomeAddress    string `json:"home_address,omitempty"`
	HomePhone      string `json:"home_phone,omitempty"`
	ParentGuardian string `json:"parent_guardian,omitempty"`
	EmergencyPhone string `json:"emergency_phone,omitempty"`
	RouteID        *uint  `json:"route_id,omitempty"`
	Active         bool   `json:"active"`
	AuditResponse
}
