package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"standup-tracker/internal/repository"
)

// SettingService 键值配置业务接口
// 每次请求直接读库，不在进程内缓存
type SettingService interface {
	// Get 读取配置；不存在时 ok=false
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	GetString(ctx context.Context, key, def string) string
	GetBool(ctx context.Context, key string, def bool) bool
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

type settingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSettingService 创建 SettingService 实例
func NewSettingService(repo *repository.Repository, logger *zap.Logger) SettingService {
	return &settingService{repo: repo, logger: logger}
}

func (s *settingService) Get(ctx context.Context, key string) (string, bool, error) {
	return readSetting(ctx, s.repo, key)
}

func (s *settingService) GetString(ctx context.Context, key, def string) string {
	v, ok, err := readSetting(ctx, s.repo, key)
	if err != nil {
		s.logger.Warn("读取配置失败，使用默认值", zap.String("key", key), zap.Error(err))
		return def
	}
	if !ok {
		return def
	}
	return v
}

func (s *settingService) GetBool(ctx context.Context, key string, def bool) bool {
	v, ok, err := readSetting(ctx, s.repo, key)
	if err != nil {
		s.logger.Warn("读取配置失败，使用默认值", zap.String("key", key), zap.Error(err))
		return def
	}
	if !ok {
		return def
	}
	return parseBool(v, def)
}

func (s *settingService) All(ctx context.Context) (map[string]string, error) {
	settings, err := s.repo.Setting.List(ctx)
	if err != nil {
		s.logger.Error("读取全部配置失败", zap.Error(err))
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, st := range settings {
		out[st.Key] = st.Value
	}
	return out, nil
}

func (s *settingService) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidArgument
	}
	if err := s.repo.Setting.Upsert(ctx, key, value); err != nil {
		s.logger.Error("写入配置失败", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// readSetting 供其他服务在事务内读取配置
func readSetting(ctx context.Context, repo *repository.Repository, key string) (string, bool, error) {
	st, err := repo.Setting.Get(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return st.Value, true, nil
}

// parseBool 宽松解析布尔配置：true/on/yes/1
func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "yes", "1":
		return true
	case "false", "off", "no", "0":
		return false
	default:
		return def
	}
}
