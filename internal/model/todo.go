package model

import "time"

// 待办优先级
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// NormalizePriority 非法优先级回退为 normal
func NormalizePriority(p string) string {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return p
	default:
		return PriorityNormal
	}
}

// Todo 待办事项 — 对应 todos
// completed_at 为空表示未完成；顺延会新建一条待办，原记录关闭并保留
type Todo struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	SectionID     int64      `gorm:"not null"                 json:"section_id"`
	Text          string     `gorm:"not null"                 json:"text"`
	Priority      string     `gorm:"not null;default:normal"  json:"priority"`
	AssignedTo    *int64     `                                json:"assigned_to,omitempty"`
	DueDate       *string    `                                json:"due_date,omitempty"`
	CreatedBy     *int64     `                                json:"created_by,omitempty"`
	CompletedAt   *time.Time `                                json:"completed_at,omitempty"`
	CompletedBy   *int64     `                                json:"completed_by,omitempty"`
	CarriedFromID *int64     `                                json:"carried_from_id,omitempty"`
	CarriedToID   *int64     `                                json:"carried_to_id,omitempty"`
	Note          string     `gorm:"not null;default:''"      json:"note"`
	CreatedAt     time.Time  `gorm:"not null"                 json:"created_at"`
}

// TableName 指定表名
func (Todo) TableName() string { return "todos" }

// IsOpen 是否未完成
func (t *Todo) IsOpen() bool { return t.CompletedAt == nil }

// TodoView 跨会议的待办视图（含所在会议/分区信息）
type TodoView struct {
	Todo
	SectionName  string `json:"section_name"`
	Reporter     string `json:"reporter"`
	DepartmentID *int64 `json:"department_id,omitempty"`
	MeetingID    int64  `json:"meeting_id"`
	MeetingDate  string `json:"meeting_date"`
	AssigneeName string `json:"assignee_name,omitempty"`
}
