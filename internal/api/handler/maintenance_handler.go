package handler

import (
	"github.com/gin-gonic/gin"

	"busbuddy/internal/dto"
	"busbuddy/internal/service"
	"busbuddy/pkg/response"
)

// MaintenanceHandler 维修保养记录 HTTP 处理器
type MaintenanceHandler struct {
	maintenanceSvc service.MaintenanceService
}

// NewMaintenanceHandler 创建 MaintenanceHandler
func NewMaintenanceHandler(maintenanceSvc service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceSvc: maintenanceSvc}
}

// Create 新增维修记录
// POST /api/v1/maintenance-records
func (h *MaintenanceHandler) Create(c *gin.Context) {
	var req dto.MaintenanceRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.maintenanceSvc.AddMaintenanceRecord(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改维修记录
// PUT /api/v1/maintenance-records/:id
func (h *MaintenanceHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.MaintenanceRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.maintenanceSvc.UpdateMaintenanceRecord(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 软删除维修记录
// DELETE /api/v1/maintenance-records/:id
func (h *MaintenanceHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.maintenanceSvc.DeleteMaintenanceRecord(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, codeNotFound, "MaintenanceRecord not found")
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// Cost 区间维修费用汇总
// GET /api/v1/maintenance-records/cost?from=&to=&vehicle_id=
func (h *MaintenanceHandler) Cost(c *gin.Context) {
	var req dto.MaintenanceCostRequest
	if !bindQuery(c, &req) {
		return
	}

	result, err := h.maintenanceSvc.GetMaintenanceCost(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListByVehicle 车辆维修记录
// GET /api/v1/buses/:id/maintenance-records
func (h *MaintenanceHandler) ListByVehicle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	list, err := h.maintenanceSvc.GetMaintenanceRecordsByVehicle(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
