package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"standup-tracker/config"
	applogger "standup-tracker/pkg/logger"
)

// driverName modernc.org/sqlite 注册的驱动名（内置 FTS5）
const driverName = "sqlite"

// Open 打开 SQLite 数据库文件（不存在则创建），返回底层 *sql.DB
// 迁移器与 GORM 共享同一个连接池
func Open(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	sqlDB, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 8
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 4
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 数据库文件仅允许属主读写
	_ = os.Chmod(cfg.Path, 0o600)

	return sqlDB, nil
}

// NewDB 在已打开的 *sql.DB 之上初始化 GORM
func NewDB(sqlDB *sql.DB, logLevel string, logger *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: applogger.NewGormLogger(logger, logLevel),
		// 事务由 Repository.Transaction 显式管理
		SkipDefaultTransaction: true,
		// 时间戳统一按 UTC 存储
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	db, err := gorm.Open(sqlite.Dialector{DriverName: driverName, Conn: sqlDB}, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化 GORM 失败: %w", err)
	}

	return db, nil
}
