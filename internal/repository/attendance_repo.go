package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"standup-tracker/internal/model"
)

// AttendanceRepository 出勤记录数据访问接口
type AttendanceRepository interface {
	// Upsert (meeting_id, user_id) 已存在时只更新状态
	Upsert(ctx context.Context, a *model.MeetingAttendance) error
	Delete(ctx context.Context, meetingID, userID int64) error
	// ListByMeeting 含用户信息，按显示名排序
	ListByMeeting(ctx context.Context, meetingID int64) ([]model.MeetingAttendance, error)
}

// attendanceRepo AttendanceRepository 的 GORM 实现
type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Upsert(ctx context.Context, a *model.MeetingAttendance) error {
	return r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meeting_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status"}),
		}).
		Create(a).Error
}

func (r *attendanceRepo) Delete(ctx context.Context, meetingID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		Delete(&model.MeetingAttendance{}).Error
}

func (r *attendanceRepo) ListByMeeting(ctx context.Context, meetingID int64) ([]model.MeetingAttendance, error) {
	var rows []model.MeetingAttendance
	err := r.db.WithContext(ctx).
		Joins("User").
		Where("meeting_attendance.meeting_id = ?", meetingID).
		Order("User__display_name ASC").
		Find(&rows).Error
	return rows, err
}
