package model

import "time"

// Setting 键值配置 — 对应 settings
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"not null"   json:"value"`
	UpdatedAt time.Time `gorm:"not null"   json:"updated_at"`
}

// TableName 指定表名
func (Setting) TableName() string { return "settings" }

// 已知配置键
const (
	SettingPresenterSound = "presenter.slide_sound"
	SettingConfetti       = "presenter.confetti"
	SettingMarkdownEscape = "markdown.escape"
	SettingCarryDueDate   = "todo.carry_due_date"
)
