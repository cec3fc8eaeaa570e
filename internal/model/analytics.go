package model

import "time"

// MeetingFill 单场会议的分区填写统计
type MeetingFill struct {
	MeetingID     int64  `json:"meeting_id"`
	Date          string `json:"date"`
	Total         int64  `json:"total"`
	Filled        int64  `json:"filled"`
	RegularTotal  int64  `json:"regular_total"`
	RegularFilled int64  `json:"regular_filled"`
}

// HeatCell 部门 × 会议 的填写状态原始数据
type HeatCell struct {
	MeetingID    int64
	DepartmentID int64
	Filled       bool
}

// AssigneePriorityCount 未完成待办按负责人、优先级计数
type AssigneePriorityCount struct {
	AssignedTo *int64
	Name       *string
	Priority   string
	Count      int64
}

// StaleTodo 长期未完成的待办
type StaleTodo struct {
	ID           int64     `json:"id"`
	Text         string    `json:"text"`
	Priority     string    `json:"priority"`
	DueDate      *string   `json:"due_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	AssigneeName *string   `json:"assignee_name,omitempty"`
	SectionName  string    `json:"section_name"`
	MeetingDate  string    `json:"meeting_date"`
	AgeDays      int       `json:"age_days"`
}

// 动态类型
const (
	ActivitySectionEdit   = "section_edit"
	ActivityTodoCreated   = "todo_created"
	ActivityTodoCompleted = "todo_completed"
)

// Activity 最近动态（由时间戳字段近似推导，不单独记录日志）
type Activity struct {
	Type        string    `json:"type"`
	Text        string    `json:"text"`
	Actor       string    `json:"actor"`
	MeetingDate string    `json:"meeting_date"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActivityRow 动态查询原始行
type ActivityRow struct {
	Subject     string
	Actor       *string
	MeetingDate string
	Timestamp   time.Time
}
