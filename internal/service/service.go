package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"standup-tracker/config"
	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
	apperrors "standup-tracker/pkg/errors"
	"standup-tracker/pkg/jwt"
	"standup-tracker/pkg/redis"
)

// ErrInvalidArgument 请求参数不合法
var ErrInvalidArgument = errors.New("参数不合法")

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Department DepartmentService
	Template   TemplateService
	Meeting    MeetingService
	Todo       TodoService
	Search     SearchService
	Setting    SettingService
	Analytics  AnalyticsService
	Export     ExportService
}

// NewService 创建 Service 聚合
// rdb 可为 nil（未配置 Redis 时登出不写黑名单）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	idx := newIndexer(logger)
	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, rdb, logger),
		User:       NewUserService(repo, cfg.Server.BaseURL, logger),
		Department: NewDepartmentService(repo, logger),
		Template:   NewTemplateService(repo, logger),
		Meeting:    NewMeetingService(repo, idx, logger),
		Todo:       NewTodoService(repo, idx, logger),
		Search:     NewSearchService(repo, logger),
		Setting:    NewSettingService(repo, logger),
		Analytics:  NewAnalyticsService(repo, logger),
		Export:     NewExportService(repo, cfg.Server.BaseURL, logger),
	}
}

// ── 操作者 ──

// Actor 发起操作的用户；UserID 为 0 表示系统操作（命令行工具等）
type Actor struct {
	UserID int64
	Role   string
}

// SystemActor 命令行等非用户入口使用的管理员身份
var SystemActor = Actor{Role: model.RoleAdmin}

// IsAdmin 是否具有管理员权限
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// ref 审计字段引用，系统操作记为 NULL
func (a Actor) ref() *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

// ── 内部辅助 ──

// notFound 将记录不存在翻译为带实体说明的 ErrNotFound
func notFound(err error, what string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %v", apperrors.ErrNotFound, what, id)
	}
	return apperrors.FromDB(err)
}

// nowUTC 统一的当前时间
func nowUTC() time.Time { return time.Now().UTC() }

// today 当前日期（YYYY-MM-DD，UTC）
func today(now time.Time) string { return now.UTC().Format(model.DateLayout) }
