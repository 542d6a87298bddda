package handler

import (
	"github.com/gin-gonic/gin"

	"busbuddy/internal/dto"
	"busbuddy/internal/service"
	"busbuddy/pkg/response"
)

// FuelHandler 加油记录 HTTP 处理器
type FuelHandler struct {
	fuelSvc service.FuelService
}

// NewFuelHandler 创建 FuelHandler
func NewFuelHandler(fuelSvc service.FuelService) *FuelHandler {
	return &FuelHandler{fuelSvc: fuelSvc}
}

// Create 新增加油记录
// POST /api/v1/fuel-records
func (h *FuelHandler) Create(c *gin.Context) {
	var req dto.CreateFuelRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.fuelSvc.AddFuelRecord(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// Delete 物理删除加油记录
// DELETE /api/v1/fuel-records/:id
func (h *FuelHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.fuelSvc.DeleteFuelRecord(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, codeNotFound, "FuelRecord not found")
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// Summary 区间油耗汇总
// GET /api/v1/fuel-records/summary?from=&to=&vehicle_id=
func (h *FuelHandler) Summary(c *gin.Context) {
	var req dto.FuelSummaryRequest
	if !bindQuery(c, &req) {
		return
	}

	result, err := h.fuelSvc.GetFuelSummary(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListByVehicle 车辆加油记录
// GET /api/v1/buses/:id/fuel-records
func (h *FuelHandler) ListByVehicle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	list, err := h.fuelSvc.GetFuelRecordsByVehicle(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
