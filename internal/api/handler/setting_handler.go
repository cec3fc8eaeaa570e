package handler

import (
	"github.com/gin-gonic/gin"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/service"
	"standup-tracker/pkg/response"
)

// SettingHandler 系统设置 HTTP 处理器
type SettingHandler struct {
	settingSvc service.SettingService
}

// NewSettingHandler 创建 SettingHandler
func NewSettingHandler(settingSvc service.SettingService) *SettingHandler {
	return &SettingHandler{settingSvc: settingSvc}
}

// All 全部设置
// GET /api/v1/settings
func (h *SettingHandler) All(c *gin.Context) {
	settings, err := h.settingSvc.All(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, settings)
}

// Set 写入单项设置（管理员）
// PUT /api/v1/settings/:key
func (h *SettingHandler) Set(c *gin.Context) {
	var req dto.SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	if err := h.settingSvc.Set(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
