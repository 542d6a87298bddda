package handler

import (
	"github.com/gin-gonic/gin"

	"busbuddy/internal/dto"
	"busbuddy/internal/service"
	"busbuddy/pkg/response"
)

// DriverHandler 司机 HTTP 处理器
type DriverHandler struct {
	driverSvc service.DriverService
}

// NewDriverHandler 创建 DriverHandler
func NewDriverHandler(driverSvc service.DriverService) *DriverHandler {
	return &DriverHandler{driverSvc: driverSvc}
}

// Create 新增司机
// POST /api/v1/drivers
func (h *DriverHandler) Create(c *gin.Context) {
	var req dto.DriverRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.driverSvc.AddDriver(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改司机
// PUT /api/v1/drivers/:id
func (h *DriverHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.DriverRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.driverSvc.UpdateDriver(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除司机
// DELETE /api/v1/drivers/:id
func (h *DriverHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.driverSvc.DeleteDriver(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, codeNotFound, "Driver not found")
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// Get 司机详情
// GET /api/v1/drivers/:id
func (h *DriverHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.driverSvc.GetDriver(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// List 司机列表
// GET /api/v1/drivers
func (h *DriverHandler) List(c *gin.Context) {
	list, err := h.driverSvc.GetAllDrivers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
