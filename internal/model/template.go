package model

// MeetingTemplate 会议模板 — 对应 meeting_templates
type MeetingTemplate struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null;uniqueIndex"     json:"name"`
	Description string `gorm:"not null;default:''"      json:"description"`
	CreatedBy   *int64 `                                json:"created_by,omitempty"`
	Timestamps

	Sections []TemplateSection `gorm:"foreignKey:TemplateID" json:"sections,omitempty"`
}

// TableName 指定表名
func (MeetingTemplate) TableName() string { return "meeting_templates" }

// TemplateSection 模板分区 — 对应 template_sections
// 读取顺序固定为 sort_order, id
type TemplateSection struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateID     int64  `gorm:"not null"                 json:"template_id"`
	DepartmentID   int64  `gorm:"not null"                 json:"department_id"`
	SortOrder      int    `gorm:"not null;default:0"       json:"sort_order"`
	DefaultContent string `gorm:"not null;default:''"      json:"default_content"`

	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (TemplateSection) TableName() string { return "template_sections" }
