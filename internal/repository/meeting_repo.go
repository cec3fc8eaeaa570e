package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"standup-tracker/internal/model"
)

// MeetingRepository 会议数据访问接口
type MeetingRepository interface {
	Create(ctx context.Context, meeting *model.Meeting) error
	GetByID(ctx context.Context, id int64) (*model.Meeting, error)
	GetByDate(ctx context.Context, date string) (*model.Meeting, error)
	// GetLatest 日期最新的会议
	GetLatest(ctx context.Context) (*model.Meeting, error)
	// List 按日期倒序的会议列表（含填写进度与未完成待办数）
	List(ctx context.Context, offset, limit int) ([]model.MeetingSummary, int64, error)
	// ListBetween 日期位于 [from, to] 的会议，按日期升序
	ListBetween(ctx context.Context, from, to string) ([]model.Meeting, error)
	SetLock(ctx context.Context, id int64, lockedBy *int64, lockedAt *time.Time) error
	ClearLock(ctx context.Context, id int64) error
}

// meetingRepo MeetingRepository 的 GORM 实现
type meetingRepo struct {
	db *gorm.DB
}

// NewMeetingRepo 创建 MeetingRepository 实例
func NewMeetingRepo(db *gorm.DB) MeetingRepository {
	return &meetingRepo{db: db}
}

func (r *meetingRepo) Create(ctx context.Context, meeting *model.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

func (r *meetingRepo) GetByID(ctx context.Context, id int64) (*model.Meeting, error) {
	var meeting model.Meeting
	if err := r.db.WithContext(ctx).First(&meeting, id).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepo) GetByDate(ctx context.Context, date string) (*model.Meeting, error) {
	var meeting model.Meeting
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		First(&meeting).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepo) GetLatest(ctx context.Context) (*model.Meeting, error) {
	var meeting model.Meeting
	err := r.db.WithContext(ctx).
		Order("date DESC").
		First(&meeting).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepo) List(ctx context.Context, offset, limit int) ([]model.MeetingSummary, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Meeting{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.MeetingSummary
	err := r.db.WithContext(ctx).
		Table("meetings").
		Select(`meetings.*,
			(SELECT COUNT(*) FROM sections s WHERE s.meeting_id = meetings.id AND s.content != '') AS filled_sections,
			(SELECT COUNT(*) FROM sections s WHERE s.meeting_id = meetings.id) AS total_sections,
			(SELECT COUNT(*) FROM todos t JOIN sections s ON s.id = t.section_id
			  WHERE s.meeting_id = meetings.id AND t.completed_at IS NULL) AS open_todos`).
		Order("meetings.date DESC").
		Offset(offset).Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *meetingRepo) ListBetween(ctx context.Context, from, to string) ([]model.Meeting, error) {
	var meetings []model.Meeting
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&meetings).Error
	return meetings, err
}

func (r *meetingRepo) SetLock(ctx context.Context, id int64, lockedBy *int64, lockedAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    model.MeetingLocked,
			"locked_by": lockedBy,
			"locked_at": lockedAt,
		}).Error
}

func (r *meetingRepo) ClearLock(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    model.MeetingOpen,
			"locked_by": nil,
			"locked_at": nil,
		}).Error
}
