package model

// Department 部门表 — 对应 departments
// 从不物理删除：归档后不再参与新会议的分区生成，但历史分区仍引用它
type Department struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string `gorm:"not null;uniqueIndex"     json:"name"`
	Color      string `gorm:"not null;default:''"      json:"color"`
	SortOrder  int    `gorm:"not null;default:0"       json:"sort_order"`
	IsSpecial  bool   `gorm:"not null;default:false"   json:"is_special"`
	IsArchived bool   `gorm:"not null;default:false"   json:"is_archived"`
	Timestamps
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// DepartmentReporter 部门汇报人 — 对应 department_reporters
// 每个部门至多一个主汇报人，可有多个备选
type DepartmentReporter struct {
	ID           int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	DepartmentID int64 `gorm:"not null"                 json:"department_id"`
	UserID       int64 `gorm:"not null"                 json:"user_id"`
	IsPrimary    bool  `gorm:"not null;default:false"   json:"is_primary"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (DepartmentReporter) TableName() string { return "department_reporters" }
