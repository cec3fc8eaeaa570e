package dto

// ── 部门模块 DTO ──

// CreateDepartmentRequest 创建部门请求
type CreateDepartmentRequest struct {
	Name      string `json:"name"       binding:"required,max=100"`
	Color     string `json:"color"      binding:"omitempty,max=20"`
	IsSpecial bool   `json:"is_special"`
}

// UpdateDepartmentRequest 更新部门请求
type UpdateDepartmentRequest struct {
	Name      *string `json:"name"       binding:"omitempty,max=100"`
	Color     *string `json:"color"      binding:"omitempty,max=20"`
	IsSpecial *bool   `json:"is_special"`
}

// DepartmentListRequest 部门列表查询参数
type DepartmentListRequest struct {
	IncludeArchived bool `form:"include_archived"`
}

// ReorderDepartmentsRequest 部门排序请求，按数组顺序重排
type ReorderDepartmentsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1"`
}

// ReporterEntry 部门汇报人
type ReporterEntry struct {
	UserID    int64 `json:"user_id"    binding:"required"`
	IsPrimary bool  `json:"is_primary"`
}

// SetReportersRequest 设置部门汇报人（整体替换）
type SetReportersRequest struct {
	Reporters []ReporterEntry `json:"reporters" binding:"dive"`
}
