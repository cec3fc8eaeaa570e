package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"standup-tracker/internal/service"
)

const (
	contentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeCalendar = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// attachment 设置下载响应头
func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

// Markdown 导出会议纪要
// GET /api/v1/meetings/:id/export/markdown
func (h *ExportHandler) Markdown(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	content, filename, err := h.exportSvc.Markdown(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeMarkdown, []byte(content))
}

// Excel 导出会议为 xlsx
// GET /api/v1/meetings/:id/export/xlsx
func (h *ExportHandler) Excel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.Excel(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// CalendarFeed 日历订阅，无需登录，凭令牌访问
// GET /api/v1/feed/:token
func (h *ExportHandler) CalendarFeed(c *gin.Context) {
	token := strings.TrimSuffix(c.Param("token"), ".ics")

	ics, err := h.exportSvc.CalendarFeed(c.Request.Context(), token)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentTypeCalendar, []byte(ics))
}
