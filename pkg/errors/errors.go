package errors

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ── 领域错误分类 ──
// 均可在请求边界恢复：映射为被拒绝的操作，不会导致进程崩溃

var (
	// ErrDuplicateDate 同一日期已存在会议
	ErrDuplicateDate = errors.New("该日期的会议已存在")
	// ErrMeetingLocked 会议已锁定，拒绝一切内容变更
	ErrMeetingLocked = errors.New("会议已锁定")
	// ErrNoTargetSection 顺延待办时找不到目标分区
	ErrNoTargetSection = errors.New("没有可顺延的目标分区")
	// ErrNotFound 引用的实体不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrConstraintViolation 存储层唯一/外键约束冲突
	ErrConstraintViolation = errors.New("违反数据约束")
)

// FromDB 将存储层错误翻译为领域错误；无法识别的错误原样返回
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if IsConstraint(err) {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}

// IsConstraint 判断是否为 SQLite 约束错误（含扩展错误码）
func IsConstraint(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated)
}

// IsUniqueViolation 判断是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
