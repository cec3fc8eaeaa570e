package model

import "time"

// 会议状态
const (
	MeetingOpen   = "open"
	MeetingLocked = "locked"
)

// Meeting 会议表 — 对应 meetings
// date 是业务主键：每天至多一场会议，创建后不会为同一天重建
type Meeting struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date       string     `gorm:"not null;uniqueIndex"     json:"date"`
	Status     string     `gorm:"not null;default:open"    json:"status"`
	LockedBy   *int64     `                                json:"locked_by,omitempty"`
	LockedAt   *time.Time `                                json:"locked_at,omitempty"`
	TemplateID *int64     `                                json:"template_id,omitempty"`
	CreatedBy  *int64     `                                json:"created_by,omitempty"`
	Timestamps
}

// TableName 指定表名
func (Meeting) TableName() string { return "meetings" }

// IsLocked 会议是否已锁定
func (m *Meeting) IsLocked() bool { return m.Status == MeetingLocked }

// Section 会议分区 — 对应 sections
// name / reporter / is_special / sort_order 在创建时从部门快照复制，不随部门后续修改变化
type Section struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID    int64      `gorm:"not null"                 json:"meeting_id"`
	DepartmentID *int64     `                                json:"department_id,omitempty"`
	ReporterID   *int64     `                                json:"reporter_id,omitempty"`
	Name         string     `gorm:"not null"                 json:"name"`
	Reporter     string     `gorm:"not null;default:''"      json:"reporter"`
	SortOrder    int        `gorm:"not null;default:0"       json:"sort_order"`
	IsSpecial    bool       `gorm:"not null;default:false"   json:"is_special"`
	Content      string     `gorm:"not null;default:''"      json:"content"`
	UpdatedBy    *int64     `                                json:"updated_by,omitempty"`
	CreatedAt    time.Time  `gorm:"not null"                 json:"created_at"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false"     json:"updated_at,omitempty"`
}

// TableName 指定表名
func (Section) TableName() string { return "sections" }

// Filled 分区是否已填写
func (s *Section) Filled() bool { return s.Content != "" }

// 出勤状态
const (
	AttendancePresent = "present"
	AttendanceRemote  = "remote"
	AttendanceAbsent  = "absent"
)

// ValidAttendanceStatus 校验出勤状态
func ValidAttendanceStatus(s string) bool {
	return s == AttendancePresent || s == AttendanceRemote || s == AttendanceAbsent
}

// MeetingAttendance 出勤记录 — 对应 meeting_attendance，(meeting_id, user_id) 唯一
type MeetingAttendance struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID int64  `gorm:"not null"                 json:"meeting_id"`
	UserID    int64  `gorm:"not null"                 json:"user_id"`
	Status    string `gorm:"not null;default:present" json:"status"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (MeetingAttendance) TableName() string { return "meeting_attendance" }

// MeetingDetail 会议详情聚合：导出层只读消费
type MeetingDetail struct {
	Meeting    Meeting             `json:"meeting"`
	Sections   []Section           `json:"sections"`
	Todos      []Todo              `json:"todos"`
	Attendance []MeetingAttendance `json:"attendance"`
}

// TodosBySection 按分区分组待办
func (d *MeetingDetail) TodosBySection() map[int64][]Todo {
	out := make(map[int64][]Todo, len(d.Sections))
	for _, t := range d.Todos {
		out[t.SectionID] = append(out[t.SectionID], t)
	}
	return out
}

// MeetingSummary 会议列表项（含填写进度）
type MeetingSummary struct {
	Meeting
	FilledSections int64 `json:"filled_sections"`
	TotalSections  int64 `json:"total_sections"`
	OpenTodos      int64 `json:"open_todos"`
}
