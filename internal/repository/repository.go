package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User       UserRepository
	Department DepartmentRepository
	Template   TemplateRepository
	Meeting    MeetingRepository
	Section    SectionRepository
	Attendance AttendanceRepository
	Todo       TodoRepository
	Setting    SettingRepository
	Search     SearchRepository
	Analytics  AnalyticsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		User:       NewUserRepo(db),
		Department: NewDepartmentRepo(db),
		Template:   NewTemplateRepo(db),
		Meeting:    NewMeetingRepo(db),
		Section:    NewSectionRepo(db),
		Attendance: NewAttendanceRepo(db),
		Todo:       NewTodoRepo(db),
		Setting:    NewSettingRepo(db),
		Search:     NewSearchRepo(db),
		Analytics:  NewAnalyticsRepo(db),
	}
}

// BeginTx 开启事务（DSN 指定 _txlock=immediate，开启即持有写锁）
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在单个事务中执行 fn；fn 返回错误或 panic 时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// SavePoint 在当前事务内建立保存点
func (r *Repository) SavePoint(name string) error {
	return r.db.SavePoint(name).Error
}

// RollbackTo 回滚到保存点，保存点之前的写入保留
func (r *Repository) RollbackTo(name string) error {
	return r.db.RollbackTo(name).Error
}
