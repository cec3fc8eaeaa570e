package dto

import "standup-tracker/internal/model"

// ── 会议模块 DTO ──

// CreateMeetingRequest 创建会议请求
// TemplateID 与 CopyFromID 至多指定一个；都为空时按部门配置生成空白会议
type CreateMeetingRequest struct {
	Date       string `json:"date"         binding:"required"`
	TemplateID *int64 `json:"template_id"`
	CopyFromID *int64 `json:"copy_from_id"`
	// CarryContent 复制会议时同时复制分区内容
	CarryContent bool `json:"carry_content"`
}

// MeetingListRequest 会议列表查询参数
type MeetingListRequest struct {
	PaginationRequest
}

// EditSectionRequest 编辑分区内容请求
type EditSectionRequest struct {
	Content string `json:"content" binding:"max=100000"`
}

// SetAttendanceRequest 设置出勤请求
type SetAttendanceRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Status string `json:"status"  binding:"omitempty,oneof=present remote absent"`
}

// FillStatusResponse 会议填写进度
type FillStatusResponse struct {
	Filled int64 `json:"filled"`
	Total  int64 `json:"total"`
}

// SectionResponse 分区及其待办
type SectionResponse struct {
	model.Section
	CanEdit bool         `json:"can_edit"`
	Todos   []model.Todo `json:"todos"`
}

// MeetingViewResponse 会议页面视图
type MeetingViewResponse struct {
	Meeting    model.Meeting             `json:"meeting"`
	Sections   []SectionResponse         `json:"sections"`
	Attendance []model.MeetingAttendance `json:"attendance"`
	Fill       FillStatusResponse        `json:"fill"`
}
