package handler

import (
	"github.com/gin-gonic/gin"

	"busbuddy/internal/dto"
	"busbuddy/internal/service"
	"busbuddy/pkg/response"
)

// BusHandler 车辆 HTTP 处理器
type BusHandler struct {
	busSvc service.BusService
}

// NewBusHandler 创建 BusHandler
func NewBusHandler(busSvc service.BusService) *BusHandler {
	return &BusHandler{busSvc: busSvc}
}

// Create 新增车辆
// POST /api/v1/buses
func (h *BusHandler) Create(c *gin.Context) {
	var req dto.BusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.busSvc.AddBus(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改车辆
// PUT /api/v1/buses/:id
func (h *BusHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.BusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.busSvc.UpdateBus(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 停用并软删除车辆
// DELETE /api/v1/buses/:id
func (h *BusHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.busSvc.DeleteBus(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, codeNotFound, "Bus not found")
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// Restore 恢复已删除车辆
// POST /api/v1/buses/:id/restore
func (h *BusHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.busSvc.RestoreBus(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Get 车辆详情（已删除车辆仍可查询）
// GET /api/v1/buses/:id
func (h *BusHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.busSvc.GetBus(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// List 未删除车辆列表
// GET /api/v1/buses
func (h *BusHandler) List(c *gin.Context) {
	var req dto.BusListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, err := h.busSvc.GetAllBuses(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
