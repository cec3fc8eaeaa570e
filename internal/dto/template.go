package dto

import "standup-tracker/internal/model"

// ── 会议模板 DTO ──

// TemplateSectionInput 模板分区定义
type TemplateSectionInput struct {
	DepartmentID   int64  `json:"department_id"   binding:"required"`
	DefaultContent string `json:"default_content"`
}

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	Name        string                 `json:"name"        binding:"required,max=100"`
	Description string                 `json:"description" binding:"omitempty,max=500"`
	Sections    []TemplateSectionInput `json:"sections"    binding:"dive"`
}

// UpdateTemplateRequest 更新模板请求；Sections 非空时整体替换分区
type UpdateTemplateRequest struct {
	Name        *string                 `json:"name"        binding:"omitempty,max=100"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Sections    *[]TemplateSectionInput `json:"sections"`
}

// SaveTemplateFromMeetingRequest 以现有会议的分区布局保存模板
type SaveTemplateFromMeetingRequest struct {
	Name        string `json:"name"        binding:"required,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// ResolvedTemplateSection 解析后的模板分区：部门 + 预填内容
type ResolvedTemplateSection struct {
	Department     model.Department `json:"department"`
	SortOrder      int              `json:"sort_order"`
	DefaultContent string           `json:"default_content"`
}

// TemplateDetailResponse 模板详情
type TemplateDetailResponse struct {
	model.MeetingTemplate
	Resolved []ResolvedTemplateSection `json:"resolved_sections"`
}
