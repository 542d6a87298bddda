package handler

import (
	"github.com/gin-gonic/gin"

	"busbuddy/internal/dto"
	"busbuddy/internal/service"
	"busbuddy/pkg/response"
)

// ScheduleHandler 排班（活动用车）HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

// Create 新增排班
// POST /api/v1/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.scheduleSvc.AddSchedule(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改排班
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.scheduleSvc.UpdateSchedule(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Validate 仅检测冲突，不写入
// POST /api/v1/schedules/validate
func (h *ScheduleHandler) Validate(c *gin.Context) {
	var req dto.ValidateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.scheduleSvc.ValidateScheduleConflict(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 软删除排班
// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.scheduleSvc.DeleteSchedule(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, codeNotFound, "Activity not found")
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// Restore 恢复已删除的排班（重新检测冲突）
// POST /api/v1/schedules/:id/restore
func (h *ScheduleHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.scheduleSvc.RestoreSchedule(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Get 排班详情
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.scheduleSvc.GetSchedule(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// List 分页查询排班
// GET /api/v1/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	var req dto.ScheduleListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, total, err := h.scheduleSvc.ListSchedules(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListByDateRange 日期区间内的排班（含两端）
// GET /api/v1/schedules/range?from=&to=
func (h *ScheduleHandler) ListByDateRange(c *gin.Context) {
	var req dto.DateRangeRequest
	if !bindQuery(c, &req) {
		return
	}

	list, err := h.scheduleSvc.GetSchedulesByDateRange(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListByVehicle 车辆的全部排班
// GET /api/v1/buses/:id/schedules
func (h *ScheduleHandler) ListByVehicle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	list, err := h.scheduleSvc.GetSchedulesByVehicle(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListByDriver 司机的全部排班
// GET /api/v1/drivers/:id/schedules
func (h *ScheduleHandler) ListByDriver(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	list, err := h.scheduleSvc.GetSchedulesByDriver(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
