package model

import "time"

// 用户角色
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User 用户表 — 对应 users
// 作为分区汇报人、待办负责人与操作者被引用
type User struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username           string     `gorm:"not null;uniqueIndex"          json:"username"`
	DisplayName        string     `gorm:"not null"                      json:"display_name"`
	Email              *string    `                                     json:"email,omitempty"`
	PasswordHash       string     `gorm:"not null"                      json:"-"`
	Role               string     `gorm:"not null;default:member"       json:"role"`
	IsActive           bool       `gorm:"not null"                      json:"is_active"`
	MustChangePassword bool       `gorm:"not null;default:false"        json:"must_change_password"`
	FeedToken          string     `gorm:"not null;uniqueIndex"          json:"-"`
	LastLoginAt        *time.Time `                                     json:"last_login_at,omitempty"`
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
