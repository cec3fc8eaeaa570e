package handler

import (
	"github.com/gin-gonic/gin"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/service"
	"standup-tracker/pkg/response"
)

// SearchHandler 全文检索 HTTP 处理器
type SearchHandler struct {
	searchSvc service.SearchService
}

// NewSearchHandler 创建 SearchHandler
func NewSearchHandler(searchSvc service.SearchService) *SearchHandler {
	return &SearchHandler{searchSvc: searchSvc}
}

// Search 检索分区内容与待办
// GET /api/v1/search?q=release&limit=50
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.searchSvc.Search(c.Request.Context(), req.Q, req.Limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// Rebuild 全量重建索引（管理员）
// POST /api/v1/search/rebuild
func (h *SearchHandler) Rebuild(c *gin.Context) {
	n, err := h.searchSvc.Rebuild(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, dto.RebuildIndexResponse{Entries: n})
}

// Verify 校验索引一致性（管理员）
// GET /api/v1/search/verify
func (h *SearchHandler) Verify(c *gin.Context) {
	result, err := h.searchSvc.Verify(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, result)
}
