package dto

// ── 用户模块 DTO ──

// CreateUserRequest 管理员创建用户请求
type CreateUserRequest struct {
	Username    string `json:"username"     binding:"required,min=2,max=50"`
	DisplayName string `json:"display_name" binding:"required,max=100"`
	Password    string `json:"password"     binding:"required,min=8,max=72"`
	Role        string `json:"role"         binding:"omitempty,oneof=admin member"`
	Email       string `json:"email"        binding:"omitempty,email"`
}

// UpdateUserRequest 管理员更新用户请求
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
	Email       *string `json:"email"        binding:"omitempty,email"`
	Role        *string `json:"role"         binding:"omitempty,oneof=admin member"`
	IsActive    *bool   `json:"is_active"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	ActiveOnly bool `form:"active_only"`
}

// ResetPasswordResponse 重置密码响应（临时密码仅返回一次）
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserError 导入失败行
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportedCredential 导入成功用户的初始密码（仅返回一次）
type ImportedCredential struct {
	Username     string `json:"username"`
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse 批量导入结果
type ImportUserResponse struct {
	Total       int                  `json:"total"`
	Success     int                  `json:"success"`
	Failed      int                  `json:"failed"`
	Errors      []ImportUserError    `json:"errors,omitempty"`
	Credentials []ImportedCredential `json:"credentials,omitempty"`
}
