package handler

import (
	"github.com/gin-gonic/gin"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/service"
	"standup-tracker/pkg/response"
)

// DepartmentHandler 部门模块 HTTP 处理器
type DepartmentHandler struct {
	deptSvc service.DepartmentService
}

// NewDepartmentHandler 创建 DepartmentHandler
func NewDepartmentHandler(deptSvc service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{deptSvc: deptSvc}
}

// List 部门列表
// GET /api/v1/departments?include_archived=true
func (h *DepartmentHandler) List(c *gin.Context) {
	var req dto.DepartmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	depts, err := h.deptSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, depts)
}

// Get 部门详情
// GET /api/v1/departments/:id
func (h *DepartmentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	dept, err := h.deptSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dept)
}

// Create 创建部门（管理员）
// POST /api/v1/departments
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	dept, err := h.deptSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, dept)
}

// Update 更新部门（管理员）
// PUT /api/v1/departments/:id
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	dept, err := h.deptSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dept)
}

// Archive 归档部门，历史分区保留
// POST /api/v1/departments/:id/archive
func (h *DepartmentHandler) Archive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.deptSvc.Archive(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Unarchive 取消归档，排到末尾
// POST /api/v1/departments/:id/unarchive
func (h *DepartmentHandler) Unarchive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.deptSvc.Unarchive(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// Reorder 调整部门顺序
// PUT /api/v1/departments/order
func (h *DepartmentHandler) Reorder(c *gin.Context) {
	var req dto.ReorderDepartmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	if err := h.deptSvc.Reorder(c.Request.Context(), req.IDs); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListReporters 部门汇报人
// GET /api/v1/departments/:id/reporters
func (h *DepartmentHandler) ListReporters(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reporters, err := h.deptSvc.ListReporters(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, reporters)
}

// SetReporters 整体替换部门汇报人（管理员）
// PUT /api/v1/departments/:id/reporters
func (h *DepartmentHandler) SetReporters(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SetReportersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	reporters, err := h.deptSvc.SetReporters(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, reporters)
}
