package handler

import (
	"github.com/gin-gonic/gin"

	"busbuddy/internal/dto"
	"busbuddy/internal/service"
	"busbuddy/pkg/response"
)

// RouteHandler 线路 HTTP 处理器
type RouteHandler struct {
	routeSvc   service.RouteService
	studentSvc service.StudentService
}

// NewRouteHandler 创建 RouteHandler
func NewRouteHandler(routeSvc service.RouteService, studentSvc service.StudentService) *RouteHandler {
	return &RouteHandler{routeSvc: routeSvc, studentSvc: studentSvc}
}

// Create 新建线路
// POST /api/v1/routes
func (h *RouteHandler) Create(c *gin.Context) {
	var req dto.CreateRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.routeSvc.CreateRoute(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 修改线路
// PUT /api/v1/routes/:id
func (h *RouteHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.routeSvc.UpdateRoute(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除线路，同时解除学生分配
// DELETE /api/v1/routes/:id
func (h *RouteHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.routeSvc.DeleteRoute(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, codeNotFound, "Route not found")
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// Get 线路详情
// GET /api/v1/routes/:id
func (h *RouteHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.routeSvc.GetRoute(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListByDate 某日全部线路
// GET /api/v1/routes?date=
func (h *RouteHandler) ListByDate(c *gin.Context) {
	var req dto.RouteListRequest
	if !bindQuery(c, &req) {
		return
	}

	list, err := h.routeSvc.ListRoutesByDate(c.Request.Context(), req.Date)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListStudents 线路上的学生
// GET /api/v1/routes/:id/students
func (h *RouteHandler) ListStudents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	list, err := h.studentSvc.GetStudentsByRoute(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// AssignStudent 分配或解除学生线路（route_id 为空表示解除）
// POST /api/v1/routes/assignments
func (h *RouteHandler) AssignStudent(c *gin.Context) {
	var req dto.AssignStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.routeSvc.AssignStudent(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}
