package handler

import (
	"github.com/gin-gonic/gin"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/service"
	"standup-tracker/pkg/response"
)

// TemplateHandler 会议模板 HTTP 处理器
type TemplateHandler struct {
	templateSvc service.TemplateService
}

// NewTemplateHandler 创建 TemplateHandler
func NewTemplateHandler(templateSvc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

// List 模板列表
// GET /api/v1/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateSvc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, templates)
}

// Get 模板详情（含解析后的分区）
// GET /api/v1/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tpl, err := h.templateSvc.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, tpl)
}

// Create 创建模板（管理员）
// POST /api/v1/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tpl, err := h.templateSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, tpl)
}

// Update 更新模板（管理员）
// PUT /api/v1/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tpl, err := h.templateSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, tpl)
}

// Delete 删除模板，引用它的会议 template_id 置空
// DELETE /api/v1/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.templateSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// SaveFromMeeting 以会议当前布局保存为模板（管理员）
// POST /api/v1/meetings/:id/save-template
func (h *TemplateHandler) SaveFromMeeting(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SaveTemplateFromMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tpl, err := h.templateSvc.SaveFromMeeting(c.Request.Context(), meetingID, &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, tpl)
}
