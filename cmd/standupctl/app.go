package main

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"standup-tracker/config"
	"standup-tracker/internal/repository"
	"standup-tracker/internal/service"
	"standup-tracker/pkg/database"
	"standup-tracker/pkg/jwt"
	applogger "standup-tracker/pkg/logger"
)

// app 命令行共用的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	sqlDB  *sql.DB
	svc    *service.Service
}

// openDB 加载配置、打开数据库并执行迁移
func openDB() (*config.Config, *zap.Logger, *sql.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}

	sqlDB, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, nil, nil, err
	}
	return cfg, logger, sqlDB, nil
}

// newApp 组装 Service；命令行不连接 Redis
func newApp() (*app, error) {
	cfg, logger, sqlDB, err := openDB()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(sqlDB, cfg.Log.Level, logger)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, logger)

	return &app{cfg: cfg, logger: logger, sqlDB: sqlDB, svc: svc}, nil
}

func (a *app) Close() {
	a.sqlDB.Close()
	a.logger.Sync()
}
