package model

import "time"

// Timestamps 通用时间审计字段
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// DateLayout 会议日期与截止日期的存储格式（TEXT，字典序即时间序）
const DateLayout = "2006-01-02"

// ValidDate 校验 YYYY-MM-DD 格式日期
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
