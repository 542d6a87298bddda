package dto

import pkgerrors "busbuddy/pkg/errors"

// ── 排班（活动用车）模块 DTO ──
// 日期统一 YYYY-MM-DD，时刻统一 HH:MM；字段校验在 service 层完成，以便一次返回全部问题。

// CreateScheduleRequest 新增排班请求
type CreateScheduleRequest struct {
	ActivityType string `json:"activity_type" validate:"required,max=50"`
	Destination  string `json:"destination"   validate:"max=200"`
	Description  string `json:"description"   validate:"max=500"`
	RequestedBy  string `json:"requested_by"  validate:"max=100"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	VehicleID    uint   `json:"vehicle_id"`
	DriverID     uint   `json:"driver_id"`
	RouteID      *uint  `json:"route_id"`
}

// UpdateScheduleRequest 修改排班请求（nil 字段保持不变）
type UpdateScheduleRequest struct {
	ActivityType *string `json:"activity_type" validate:"omitempty,min=1,max=50"`
	Destination  *string `json:"destination"   validate:"omitempty,max=200"`
	Description  *string `json:"description"   validate:"omitempty,max=500"`
	RequestedBy  *string `json:"requested_by"  validate:"omitempty,max=100"`
	Date         *string `json:"date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	VehicleID    *uint   `json:"vehicle_id"`
	DriverID     *uint   `json:"driver_id"`
	RouteID      *uint   `json:"route_id"`
	Status       *string `json:"status"        validate:"omitempty,oneof=Scheduled Completed Cancelled"`
}

// ValidateScheduleRequest 冲突预检请求；ExcludeID 为修改场景下自身的活动 ID
type ValidateScheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	VehicleID uint   `json:"vehicle_id"`
	DriverID  uint   `json:"driver_id"`
	ExcludeID *uint  `json:"exclude_id"`
}

// ScheduleListRequest 排班分页查询参数
type ScheduleListRequest struct {
	PaginationRequest
	VehicleID uint   `form:"vehicle_id"`
	DriverID  uint   `form:"driver_id"`
	From      string `form:"from"`
	To        string `form:"to"`
	Status    string `form:"status" binding:"omitempty,oneof=Scheduled Completed Cancelled"`
}

// ── 响应 ──

// ScheduleResponse 排班响应
type ScheduleResponse struct {
	ID           uint   `json:"id"`
	ActivityType string `json:"activity_type"`
	Destination  string `json:"destination,omitempty"`
	Description  string `json:"description,omitempty"`
	RequestedBy  string `json:"requested_by,omitempty"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	VehicleID    uint   `json:"vehicle_id"`
	DriverID     uint   `json:"driver_id"`
	RouteID      *uint  `json:"route_id,omitempty"`
	Status       string `json:"status"`
	IsDeleted    bool   `json:"is_deleted"`
	AuditResponse
}

// ConflictInfo 冲突详情
type ConflictInfo struct {
	Resource    string `json:"resource"`
	ResourceID  uint   `json:"resource_id"`
	ExistingRef string `json:"existing_ref"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Message     string `json:"message"`
}

// NewConflictInfo 由冲突错误生成响应详情
func NewConflictInfo(ce *pkgerrors.ConflictError) *ConflictInfo {
	if ce == nil {
		return nil
	}
	return &ConflictInfo{
		Resource:    ce.Resource,
		ResourceID:  ce.ResourceID,
		ExistingRef: ce.ExistingRef,
		Date:        ce.Date,
		StartTime:   ce.Start,
		EndTime:     ce.End,
		Message:     ce.Error(),
	}
}

// ConflictCheckResponse 冲突预检响应
type ConflictCheckResponse struct {
	HasConflict bool          `json:"has_conflict"`
	Conflict    *ConflictInfo `json:"conflict,omitempty"`
}
