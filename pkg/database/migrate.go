package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsTable 已应用版本记录表
const MigrationsTable = "schema_migrations"

// RunMigrations 执行内置迁移
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	return RunMigrationsFrom(db, migrationsFS, "migrations", logger)
}

// RunMigrationsFrom 按版本顺序应用 dir 下尚未执行的迁移
//
// 每个迁移在独立事务中执行；某个迁移失败时其语句整体回滚，
// 并把版本记录强制回退到上一个已成功的版本（清除 dirty 标记），
// 保证数据库停留在失败前的一致状态。调用方应将返回的错误视为致命错误。
func RunMigrationsFrom(db *sql.DB, fsys fs.FS, dir string, logger *zap.Logger) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}
	// 注意：不能调用 m.Close()，它会关闭共享的 *sql.DB

	before, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("读取迁移版本失败: %w", err)
	}
	if dirty {
		// 上次进程在迁移中途退出；语句已随事务回滚，回退版本记录后重试
		if err := restorePrevious(m, src, before, logger); err != nil {
			return err
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		failed, isDirty, verr := m.Version()
		if verr == nil && isDirty {
			if rerr := restorePrevious(m, src, failed, logger); rerr != nil {
				return fmt.Errorf("执行迁移 %d 失败: %v；回退版本记录失败: %w", failed, err, rerr)
			}
		}
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("数据库迁移完成", zap.Uint("version", version))

	return nil
}

// restorePrevious 将 dirty 的版本 failed 回退为其前一个迁移版本
func restorePrevious(m *migrate.Migrate, src source.Driver, failed uint, logger *zap.Logger) error {
	target := migratedb.NilVersion
	prev, err := src.Prev(failed)
	switch {
	case err == nil:
		target = int(prev)
	case errors.Is(err, os.ErrNotExist):
		// failed 是第一个迁移
	default:
		return fmt.Errorf("查找上一个迁移版本失败: %w", err)
	}

	if err := m.Force(target); err != nil {
		return fmt.Errorf("强制设置迁移版本失败: %w", err)
	}
	logger.Warn("迁移失败，版本记录已回退",
		zap.Uint("failed_version", failed), zap.Int("restored_version", target))
	return nil
}

// CurrentVersion 返回当前已应用的迁移版本；未迁移时返回 0
func CurrentVersion(db *sql.DB) (uint, bool, error) {
	var version int64
	var dirty bool
	err := db.QueryRow("SELECT version, dirty FROM " + MigrationsTable + " LIMIT 1").Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint(version), dirty, nil
}
