package repository

import (
	"context"

	"gorm.io/gorm"

	"standup-tracker/internal/model"
)

// TodoFilter 跨会议待办查询条件
type TodoFilter struct {
	Priority     string
	AssignedTo   *int64
	Unassigned   bool
	DepartmentID *int64
	// OverdueBefore 非空时仅返回截止日期早于该日期的待办
	OverdueBefore string
	IncludeDone   bool
}

// openTodoOrder 截止日期升序（无截止日期排最后），其次优先级高→低，最后按创建顺序
const openTodoOrder = "t.due_date IS NULL, t.due_date ASC, " +
	"CASE t.priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, t.id ASC"

// TodoRepository 待办数据访问接口
type TodoRepository interface {
	Create(ctx context.Context, todo *model.Todo) error
	GetByID(ctx context.Context, id int64) (*model.Todo, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	// ListBySection 未完成在前，其次按创建顺序
	ListBySection(ctx context.Context, sectionID int64) ([]model.Todo, error)
	ListByMeeting(ctx context.Context, meetingID int64) ([]model.Todo, error)
	// List 跨会议查询，排序见 openTodoOrder
	List(ctx context.Context, filter TodoFilter) ([]model.TodoView, error)
	// ListDueBetween 截止日期位于 [from, to] 的未完成待办
	ListDueBetween(ctx context.Context, assignedTo int64, from, to string) ([]model.TodoView, error)
}

// todoRepo TodoRepository 的 GORM 实现
type todoRepo struct {
	db *gorm.DB
}

// NewTodoRepo 创建 TodoRepository 实例
func NewTodoRepo(db *gorm.DB) TodoRepository {
	return &todoRepo{db: db}
}

func (r *todoRepo) Create(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

func (r *todoRepo) GetByID(ctx context.Context, id int64) (*model.Todo, error) {
	var todo model.Todo
	if err := r.db.WithContext(ctx).First(&todo, id).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *todoRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.Todo{}).
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

// Delete 删除待办，并解除其他待办对它的顺延引用
func (r *todoRepo) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Todo{}).Where("carried_from_id = ?", id).
		Update("carried_from_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&model.Todo{}).Where("carried_to_id = ?", id).
		Update("carried_to_id", nil).Error; err != nil {
		return err
	}
	res := db.Delete(&model.Todo{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *todoRepo) ListBySection(ctx context.Context, sectionID int64) ([]model.Todo, error) {
	var todos []model.Todo
	err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("completed_at IS NOT NULL, id ASC").
		Find(&todos).Error
	return todos, err
}

func (r *todoRepo) ListByMeeting(ctx context.Context, meetingID int64) ([]model.Todo, error) {
	var todos []model.Todo
	err := r.db.WithContext(ctx).
		Select("todos.*").
		Joins("JOIN sections s ON s.id = todos.section_id").
		Where("s.meeting_id = ?", meetingID).
		Order("s.sort_order ASC, todos.completed_at IS NOT NULL, todos.id ASC").
		Find(&todos).Error
	return todos, err
}

func (r *todoRepo) viewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("todos t").
		Select(`t.*, s.name AS section_name, s.reporter AS reporter, s.department_id AS department_id,
			m.id AS meeting_id, m.date AS meeting_date, u.display_name AS assignee_name`).
		Joins("JOIN sections s ON s.id = t.section_id").
		Joins("JOIN meetings m ON m.id = s.meeting_id").
		Joins("LEFT JOIN users u ON u.id = t.assigned_to")
}

func (r *todoRepo) List(ctx context.Context, filter TodoFilter) ([]model.TodoView, error) {
	db := r.viewQuery(ctx)

	if !filter.IncludeDone {
		db = db.Where("t.completed_at IS NULL")
	}
	if filter.Priority != "" {
		db = db.Where("t.priority = ?", filter.Priority)
	}
	switch {
	case filter.Unassigned:
		db = db.Where("t.assigned_to IS NULL")
	case filter.AssignedTo != nil:
		db = db.Where("t.assigned_to = ?", *filter.AssignedTo)
	}
	if filter.DepartmentID != nil {
		db = db.Where("s.department_id = ?", *filter.DepartmentID)
	}
	if filter.OverdueBefore != "" {
		db = db.Where("t.due_date IS NOT NULL AND t.due_date < ? AND t.completed_at IS NULL", filter.OverdueBefore)
	}

	var todos []model.TodoView
	err := db.Order(openTodoOrder).Scan(&todos).Error
	return todos, err
}

func (r *todoRepo) ListDueBetween(ctx context.Context, assignedTo int64, from, to string) ([]model.TodoView, error) {
	var todos []model.TodoView
	err := r.viewQuery(ctx).
		Where("t.completed_at IS NULL AND t.assigned_to = ?", assignedTo).
		Where("t.due_date >= ? AND t.due_date <= ?", from, to).
		Order(openTodoOrder).
		Scan(&todos).Error
	return todos, err
}
