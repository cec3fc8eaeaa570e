package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"standup-tracker/internal/model"
)

// SectionRepository 会议分区数据访问接口
type SectionRepository interface {
	CreateBatch(ctx context.Context, sections []model.Section) error
	GetByID(ctx context.Context, id int64) (*model.Section, error)
	// ListByMeeting 按 sort_order, id 排序
	ListByMeeting(ctx context.Context, meetingID int64) ([]model.Section, error)
	UpdateContent(ctx context.Context, id int64, content string, updatedBy *int64, at time.Time) error
	FillStatus(ctx context.Context, meetingID int64) (filled, total int64, err error)
	// FindCarryTarget 在日期晚于 afterDate 的会议中取日期最新的一场，返回其匹配分区
	// departmentID 非空时优先按部门匹配，找不到再按分区名称匹配
	FindCarryTarget(ctx context.Context, afterDate string, departmentID *int64, name string) (*model.Section, error)
	// FindInMeeting 在指定会议中查找匹配分区，规则同 FindCarryTarget 并带名称回退
	FindInMeeting(ctx context.Context, meetingID int64, departmentID *int64, name string) (*model.Section, error)
}

// sectionRepo SectionRepository 的 GORM 实现
type sectionRepo struct {
	db *gorm.DB
}

// NewSectionRepo 创建 SectionRepository 实例
func NewSectionRepo(db *gorm.DB) SectionRepository {
	return &sectionRepo{db: db}
}

func (r *sectionRepo) CreateBatch(ctx context.Context, sections []model.Section) error {
	if len(sections) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&sections).Error
}

func (r *sectionRepo) GetByID(ctx context.Context, id int64) (*model.Section, error) {
	var section model.Section
	if err := r.db.WithContext(ctx).First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) ListByMeeting(ctx context.Context, meetingID int64) ([]model.Section, error) {
	var sections []model.Section
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("sort_order ASC, id ASC").
		Find(&sections).Error
	return sections, err
}

func (r *sectionRepo) UpdateContent(ctx context.Context, id int64, content string, updatedBy *int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_by": updatedBy,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sectionRepo) FillStatus(ctx context.Context, meetingID int64) (int64, int64, error) {
	var row struct {
		Filled int64
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Section{}).
		Select("COALESCE(SUM(CASE WHEN content != '' THEN 1 ELSE 0 END), 0) AS filled, COUNT(*) AS total").
		Where("meeting_id = ?", meetingID).
		Scan(&row).Error
	return row.Filled, row.Total, err
}

func (r *sectionRepo) FindCarryTarget(ctx context.Context, afterDate string, departmentID *int64, name string) (*model.Section, error) {
	find := func(column string, value interface{}) (*model.Section, error) {
		var section model.Section
		err := r.db.WithContext(ctx).
			Select("sections.*").
			Joins("JOIN meetings m ON m.id = sections.meeting_id").
			Where("m.date > ?", afterDate).
			Where("sections."+column+" = ?", value).
			Order("m.date DESC, sections.sort_order ASC, sections.id ASC").
			Take(&section).Error
		if err != nil {
			return nil, err
		}
		return &section, nil
	}

	if departmentID != nil {
		section, err := find("department_id", *departmentID)
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return section, err
		}
	}
	return find("name", name)
}

func (r *sectionRepo) FindInMeeting(ctx context.Context, meetingID int64, departmentID *int64, name string) (*model.Section, error) {
	var section model.Section
	if departmentID != nil {
		err := r.db.WithContext(ctx).
			Where("meeting_id = ? AND department_id = ?", meetingID, *departmentID).
			Order("sort_order ASC, id ASC").
			Take(&section).Error
		if err == nil {
			return &section, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND name = ?", meetingID, name).
		Order("sort_order ASC, id ASC").
		Take(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}
