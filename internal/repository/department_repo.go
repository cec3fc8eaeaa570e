package repository

import (
	"context"

	"gorm.io/gorm"

	"standup-tracker/internal/model"
)

// DepartmentRepository 部门与部门汇报人数据访问接口
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id int64) (*model.Department, error)
	GetByName(ctx context.Context, name string) (*model.Department, error)
	// ListActive 未归档部门，按 sort_order, id 排序
	ListActive(ctx context.Context) ([]model.Department, error)
	ListAll(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	SetArchived(ctx context.Context, id int64, archived bool) error
	SetSortOrder(ctx context.Context, id int64, sortOrder int) error
	MaxSortOrder(ctx context.Context) (int, error)
	CountByIDs(ctx context.Context, ids []int64) (int64, error)

	ListReporters(ctx context.Context, departmentID int64) ([]model.DepartmentReporter, error)
	// PrimaryReporter 主汇报人（含用户信息），未配置时返回 gorm.ErrRecordNotFound
	PrimaryReporter(ctx context.Context, departmentID int64) (*model.DepartmentReporter, error)
	ReplaceReporters(ctx context.Context, departmentID int64, reporters []model.DepartmentReporter) error
	IsReporter(ctx context.Context, departmentID, userID int64) (bool, error)
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id int64) (*model.Department, error) {
	var dept model.Department
	if err := r.db.WithContext(ctx).First(&dept, id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) ListActive(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Where("is_archived = ?", false).
		Order("sort_order ASC, id ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) ListAll(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Order("is_archived ASC, sort_order ASC, id ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

func (r *departmentRepo) SetArchived(ctx context.Context, id int64, archived bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("id = ?", id).
		Update("is_archived", archived)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *departmentRepo) SetSortOrder(ctx context.Context, id int64, sortOrder int) error {
	res := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("id = ?", id).
		Update("sort_order", sortOrder)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *departmentRepo) MaxSortOrder(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&max).Error
	return max, err
}

func (r *departmentRepo) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("id IN ?", ids).
		Count(&count).Error
	return count, err
}

// ── 部门汇报人 ──

func (r *departmentRepo) ListReporters(ctx context.Context, departmentID int64) ([]model.DepartmentReporter, error) {
	var reporters []model.DepartmentReporter
	err := r.db.WithContext(ctx).
		Joins("User").
		Where("department_reporters.department_id = ?", departmentID).
		Order("department_reporters.is_primary DESC, User__display_name ASC").
		Find(&reporters).Error
	return reporters, err
}

func (r *departmentRepo) PrimaryReporter(ctx context.Context, departmentID int64) (*model.DepartmentReporter, error) {
	var reporter model.DepartmentReporter
	err := r.db.WithContext(ctx).
		Joins("User").
		Where("department_reporters.department_id = ? AND department_reporters.is_primary = ?", departmentID, true).
		Order("department_reporters.id ASC").
		First(&reporter).Error
	if err != nil {
		return nil, err
	}
	return &reporter, nil
}

// ReplaceReporters 整体替换部门汇报人，需在事务内调用
func (r *departmentRepo) ReplaceReporters(ctx context.Context, departmentID int64, reporters []model.DepartmentReporter) error {
	if err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Delete(&model.DepartmentReporter{}).Error; err != nil {
		return err
	}
	if len(reporters) == 0 {
		return nil
	}
	for i := range reporters {
		reporters[i].DepartmentID = departmentID
	}
	return r.db.WithContext(ctx).Omit("User").Create(&reporters).Error
}

func (r *departmentRepo) IsReporter(ctx context.Context, departmentID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DepartmentReporter{}).
		Where("department_id = ? AND user_id = ?", departmentID, userID).
		Count(&count).Error
	return count > 0, err
}
