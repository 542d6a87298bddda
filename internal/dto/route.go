package dto

// ── 线路模块 DTO ──

// RouteLegRequest 线路单段（上午/下午）
type RouteLegRequest struct {
	VehicleID uint   `json:"vehicle_id"`
	DriverID  uint   `json:"driver_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// CreateRouteRequest 新增线路请求
type CreateRouteRequest struct {
	Name        string           `json:"name"        validate:"required,max=100"`
	Date        string           `json:"date"`
	Description string           `json:"description" validate:"max=500"`
	AM          *RouteLegRequest `json:"am"`
	PM          *RouteLegRequest `json:"pm"`
}

// UpdateRouteRequest 修改线路请求；AM/PM 整段替换，传 null 表示清空该段
type UpdateRouteRequest struct {
	Name        string           `json:"name"        validate:"required,max=100"`
	Date        string           `json:"date"`
	Description string           `json:"description" validate:"max=500"`
	IsActive    *bool            `json:"is_active"`
	AM          *RouteLegRequest `json:"am"`
	PM          *RouteLegRequest `json:"pm"`
}

// AssignStudentRequest 分配学生到线路；RouteID 为 null 表示解除分配
type AssignStudentRequest struct {
	StudentID uint  `json:"student_id" binding:"required"`
	RouteID   *uint `json:"route_id"`
}

// RouteListRequest 按日期查询线路
type RouteListRequest struct {
	Date string `form:"date" binding:"required"`
}

// ── 响应 ──

// RouteLegResponse 线路单段响应
type RouteLegResponse struct {
	VehicleID uint   `json:"vehicle_id"`
	DriverID  uint   `json:"driver_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// RouteResponse 线路响应
type RouteResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Date        string            `json:"date"`
	Description string            `json:"description,omitempty"`
	IsActive    bool              `json:"is_active"`
	AM          *RouteLegResponse `json:"am,omitempty"`
	PM          *RouteLegResponse `json:"pm,omitempty"`
	IsDeleted   bool              `json:"is_deleted"`
	AuditResponse
}
