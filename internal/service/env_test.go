package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"standup-tracker/config"
	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
	"standup-tracker/pkg/database"
	"standup-tracker/pkg/jwt"
)

// ── 测试环境 ──
// 每个测试使用独立的临时 SQLite 文件，执行真实迁移

type testEnv struct {
	repo *repository.Repository
	svc  *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sqlDB, err := database.Open(&config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "standup.db")})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		t.Fatalf("执行迁移失败: %v", err)
	}
	gdb, err := database.NewDB(sqlDB, "warn", zap.NewNop())
	if err != nil {
		t.Fatalf("初始化 GORM 失败: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "http://standup.test"},
		Auth:   config.AuthConfig{JWTSecret: "test-secret-key-at-least-32-bytes!!", AccessTokenTTL: time.Hour},
	}
	repo := repository.NewRepository(gdb)
	return &testEnv{
		repo: repo,
		svc:  NewService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop()),
	}
}

func (e *testEnv) user(t *testing.T, username, displayName, role string) *model.User {
	t.Helper()
	u, err := e.svc.User.Create(context.Background(), &dto.CreateUserRequest{
		Username: username, DisplayName: displayName, Password: "password123", Role: role,
	})
	if err != nil {
		t.Fatalf("创建用户 %s 失败: %v", username, err)
	}
	return u
}

func (e *testEnv) department(t *testing.T, name string, special bool) *model.Department {
	t.Helper()
	d, err := e.svc.Department.Create(context.Background(), &dto.CreateDepartmentRequest{Name: name, IsSpecial: special})
	if err != nil {
		t.Fatalf("创建部门 %s 失败: %v", name, err)
	}
	return d
}

func (e *testEnv) meeting(t *testing.T, date string) *model.Meeting {
	t.Helper()
	m, err := e.svc.Meeting.Create(context.Background(), &dto.CreateMeetingRequest{Date: date}, SystemActor)
	if err != nil {
		t.Fatalf("创建会议 %s 失败: %v", date, err)
	}
	return m
}

func (e *testEnv) sections(t *testing.T, meetingID int64) []model.Section {
	t.Helper()
	secs, err := e.svc.Meeting.ListSections(context.Background(), meetingID)
	if err != nil {
		t.Fatalf("查询分区失败: %v", err)
	}
	return secs
}

func (e *testEnv) sectionNamed(t *testing.T, meetingID int64, name string) *model.Section {
	t.Helper()
	for _, s := range e.sections(t, meetingID) {
		if s.Name == name {
			sec := s
			return &sec
		}
	}
	t.Fatalf("会议 %d 中没有分区 %s", meetingID, name)
	return nil
}

func (e *testEnv) todo(t *testing.T, sectionID int64, text, priority string, due *string) *model.Todo {
	t.Helper()
	td, err := e.svc.Todo.Create(context.Background(), &dto.CreateTodoRequest{
		SectionID: sectionID, Text: text, Priority: priority, DueDate: due,
	}, SystemActor)
	if err != nil {
		t.Fatalf("创建待办 %q 失败: %v", text, err)
	}
	return td
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool { return &v }

func adminActor(u *model.User) Actor { return Actor{UserID: u.ID, Role: model.RoleAdmin} }
func memberActor(u *model.User) Actor { return Actor{UserID: u.ID, Role: model.RoleMember} }
