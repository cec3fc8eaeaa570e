package handler

import (
	"github.com/gin-gonic/gin"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/service"
	"standup-tracker/pkg/response"
)

// MeetingHandler 会议与分区 HTTP 处理器
type MeetingHandler struct {
	meetingSvc service.MeetingService
}

// NewMeetingHandler 创建 MeetingHandler
func NewMeetingHandler(meetingSvc service.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingSvc: meetingSvc}
}

// ────────────────────── 会议 ──────────────────────

// List 会议列表，按日期倒序分页
// GET /api/v1/meetings?page=1&page_size=20
func (h *MeetingHandler) List(c *gin.Context) {
	var req dto.MeetingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.meetingSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Create 创建会议
// POST /api/v1/meetings
func (h *MeetingHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	meeting, err := h.meetingSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, meeting)
}

// View 会议完整视图
// GET /api/v1/meetings/:id
func (h *MeetingHandler) View(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.meetingSvc.View(c.Request.Context(), id, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, view)
}

// GetByDate 按日期查找会议
// GET /api/v1/meetings/date/:date
func (h *MeetingHandler) GetByDate(c *gin.Context) {
	meeting, err := h.meetingSvc.GetByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, meeting)
}

// Latest 最近一场会议
// GET /api/v1/meetings/latest
func (h *MeetingHandler) Latest(c *gin.Context) {
	meeting, err := h.meetingSvc.GetLatest(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, meeting)
}

// Lock 锁定会议（管理员）
// POST /api/v1/meetings/:id/lock
func (h *MeetingHandler) Lock(c *gin.Context) {
	h.setLocked(c, true)
}

// Unlock 解锁会议（管理员）
// POST /api/v1/meetings/:id/unlock
func (h *MeetingHandler) Unlock(c *gin.Context) {
	h.setLocked(c, false)
}

func (h *MeetingHandler) setLocked(c *gin.Context, locked bool) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	lockFn := h.meetingSvc.Unlock
	if locked {
		lockFn = h.meetingSvc.Lock
	}
	meeting, err := lockFn(c.Request.Context(), id, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, meeting)
}

// FillStatus 分区填写进度
// GET /api/v1/meetings/:id/fill
func (h *MeetingHandler) FillStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fill, err := h.meetingSvc.FillStatus(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, fill)
}

// ────────────────────── 出勤 ──────────────────────

// ListAttendance 会议出勤
// GET /api/v1/meetings/:id/attendance
func (h *MeetingHandler) ListAttendance(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.meetingSvc.ListAttendance(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// SetAttendance 登记出勤，同一用户重复登记覆盖状态
// PUT /api/v1/meetings/:id/attendance
func (h *MeetingHandler) SetAttendance(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SetAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	if err := h.meetingSvc.SetAttendance(c.Request.Context(), id, &req); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// RemoveAttendance 取消出勤登记
// DELETE /api/v1/meetings/:id/attendance/:user_id
func (h *MeetingHandler) RemoveAttendance(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.meetingSvc.RemoveAttendance(c.Request.Context(), id, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 分区 ──────────────────────

// GetSection 分区详情
// GET /api/v1/sections/:id
func (h *MeetingHandler) GetSection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	section, err := h.meetingSvc.GetSection(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, section)
}

// EditSection 编辑分区内容
// PUT /api/v1/sections/:id
func (h *MeetingHandler) EditSection(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.EditSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	section, err := h.meetingSvc.EditSection(c.Request.Context(), id, req.Content, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, section)
}
