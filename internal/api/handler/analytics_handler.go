package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"standup-tracker/internal/service"
	"standup-tracker/pkg/response"
)

// AnalyticsHandler 统计分析 HTTP 处理器
type AnalyticsHandler struct {
	analyticsSvc service.AnalyticsService
}

// NewAnalyticsHandler 创建 AnalyticsHandler
func NewAnalyticsHandler(analyticsSvc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// queryInt 读取正整数查询参数，缺省或非法时取 def，上限 upper
func queryInt(c *gin.Context, key string, def, upper int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}

// Dashboard 汇总看板
// GET /api/v1/analytics
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	result, err := h.analyticsSvc.Dashboard(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// KPIs 核心指标
// GET /api/v1/analytics/kpis
func (h *AnalyticsHandler) KPIs(c *gin.Context) {
	result, err := h.analyticsSvc.KPIs(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// FillRate 填写率趋势
// GET /api/v1/analytics/fill-rate?limit=12
func (h *AnalyticsHandler) FillRate(c *gin.Context) {
	result, err := h.analyticsSvc.FillRate(c.Request.Context(), queryInt(c, "limit", 12, 100))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Velocity 每周新建/完成数
// GET /api/v1/analytics/velocity?weeks=8
func (h *AnalyticsHandler) Velocity(c *gin.Context) {
	result, err := h.analyticsSvc.Velocity(c.Request.Context(), queryInt(c, "weeks", 8, 52))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Heatmap 部门 × 会议填写热力图
// GET /api/v1/analytics/heatmap?limit=10
func (h *AnalyticsHandler) Heatmap(c *gin.Context) {
	result, err := h.analyticsSvc.Heatmap(c.Request.Context(), queryInt(c, "limit", 10, 50))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// ByAssignee 按负责人统计未完成待办
// GET /api/v1/analytics/assignees
func (h *AnalyticsHandler) ByAssignee(c *gin.Context) {
	result, err := h.analyticsSvc.ByAssignee(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Stale 长期未处理的待办
// GET /api/v1/analytics/stale?days=14
func (h *AnalyticsHandler) Stale(c *gin.Context) {
	result, err := h.analyticsSvc.Stale(c.Request.Context(), queryInt(c, "days", 14, 365))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}

// Activity 最近动态
// GET /api/v1/analytics/activity?limit=20
func (h *AnalyticsHandler) Activity(c *gin.Context) {
	result, err := h.analyticsSvc.Activity(c.Request.Context(), queryInt(c, "limit", 20, 200))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}
