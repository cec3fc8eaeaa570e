package repository

import (
	"context"

	"gorm.io/gorm"

	"standup-tracker/internal/model"
)

// TemplateRepository 会议模板数据访问接口
type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.MeetingTemplate) error
	GetByID(ctx context.Context, id int64) (*model.MeetingTemplate, error)
	List(ctx context.Context) ([]model.MeetingTemplate, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	// ListSections 模板分区（含部门），按 sort_order, id 排序
	ListSections(ctx context.Context, templateID int64) ([]model.TemplateSection, error)
	ReplaceSections(ctx context.Context, templateID int64, sections []model.TemplateSection) error
}

// templateRepo TemplateRepository 的 GORM 实现
type templateRepo struct {
	db *gorm.DB
}

// NewTemplateRepo 创建 TemplateRepository 实例
func NewTemplateRepo(db *gorm.DB) TemplateRepository {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, tpl *model.MeetingTemplate) error {
	return r.db.WithContext(ctx).Omit("Sections").Create(tpl).Error
}

func (r *templateRepo) GetByID(ctx context.Context, id int64) (*model.MeetingTemplate, error) {
	var tpl model.MeetingTemplate
	if err := r.db.WithContext(ctx).First(&tpl, id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepo) List(ctx context.Context) ([]model.MeetingTemplate, error) {
	var tpls []model.MeetingTemplate
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&tpls).Error
	return tpls, err
}

func (r *templateRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.MeetingTemplate{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 删除模板；template_sections 级联删除，meetings.template_id 置空
func (r *templateRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.MeetingTemplate{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *templateRepo) ListSections(ctx context.Context, templateID int64) ([]model.TemplateSection, error) {
	var sections []model.TemplateSection
	err := r.db.WithContext(ctx).
		Joins("Department").
		Where("template_sections.template_id = ?", templateID).
		Order("template_sections.sort_order ASC, template_sections.id ASC").
		Find(&sections).Error
	return sections, err
}

// ReplaceSections 整体替换模板分区，需在事务内调用
func (r *templateRepo) ReplaceSections(ctx context.Context, templateID int64, sections []model.TemplateSection) error {
	if err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Delete(&model.TemplateSection{}).Error; err != nil {
		return err
	}
	if len(sections) == 0 {
		return nil
	}
	for i := range sections {
		sections[i].ID = 0
		sections[i].TemplateID = templateID
	}
	return r.db.WithContext(ctx).Omit("Department").Create(&sections).Error
}
