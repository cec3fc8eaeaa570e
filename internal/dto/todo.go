package dto

// ── 待办模块 DTO ──

// CreateTodoRequest 创建待办请求
type CreateTodoRequest struct {
	SectionID  int64   `json:"section_id"  binding:"required"`
	Text       string  `json:"text"        binding:"required,max=2000"`
	Priority   string  `json:"priority"`
	AssignedTo *int64  `json:"assigned_to"`
	DueDate    *string `json:"due_date"`
}

// UpdateTodoRequest 更新待办请求；Clear* 为 true 时清空对应字段
type UpdateTodoRequest struct {
	Text          *string `json:"text"        binding:"omitempty,max=2000"`
	Priority      *string `json:"priority"    binding:"omitempty,oneof=low normal high"`
	AssignedTo    *int64  `json:"assigned_to"`
	ClearAssignee bool    `json:"clear_assignee"`
	DueDate       *string `json:"due_date"`
	ClearDueDate  bool    `json:"clear_due_date"`
}

// CarryForwardRequest 顺延待办请求
type CarryForwardRequest struct {
	// KeepDueDate 为空时由设置 todo.carry_due_date 决定
	KeepDueDate *bool `json:"keep_due_date"`
	// TargetMeetingID 指定目标会议，仅管理员可用；为空时在日期晚于来源的会议中选最新的一场
	TargetMeetingID *int64 `json:"target_meeting_id"`
}

// TodoListRequest 跨会议待办查询参数
type TodoListRequest struct {
	Priority     string `form:"priority"      binding:"omitempty,oneof=low normal high"`
	AssignedTo   *int64 `form:"assigned_to"`
	Unassigned   bool   `form:"unassigned"`
	DepartmentID *int64 `form:"department_id"`
	OverdueOnly  bool   `form:"overdue_only"`
	IncludeDone  bool   `form:"include_done"`
}
