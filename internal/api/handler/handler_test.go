package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"standup-tracker/internal/api/middleware"
	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/service"
	apperrors "standup-tracker/pkg/errors"
	"standup-tracker/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	logoutErr     error
	changePassErr error

	logoutJTI string
	logoutTTL time.Duration
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, ttl time.Duration) error {
	m.logoutJTI, m.logoutTTL = jti, ttl
	return m.logoutErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ int64, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}

// ── Mock UserService ──

type mockUserService struct {
	user    *model.User
	users   []model.User
	err     error
	feed    *dto.FeedTokenResponse
	gotID   int64
	updated *dto.UpdateUserRequest
}

func (m *mockUserService) Create(_ context.Context, _ *dto.CreateUserRequest) (*model.User, error) {
	return m.user, m.err
}
func (m *mockUserService) Get(_ context.Context, id int64) (*model.User, error) {
	m.gotID = id
	return m.user, m.err
}
func (m *mockUserService) List(_ context.Context, _ *dto.UserListRequest) ([]model.User, error) {
	return m.users, m.err
}
func (m *mockUserService) Update(_ context.Context, id int64, req *dto.UpdateUserRequest, _ service.Actor) (*model.User, error) {
	m.gotID, m.updated = id, req
	return m.user, m.err
}
func (m *mockUserService) ResetPassword(_ context.Context, _ int64) (*dto.ResetPasswordResponse, error) {
	return &dto.ResetPasswordResponse{TempPassword: "tmp"}, m.err
}
func (m *mockUserService) RegenerateFeedToken(_ context.Context, id int64) (*dto.FeedTokenResponse, error) {
	m.gotID = id
	return m.feed, m.err
}
func (m *mockUserService) FeedURL(_ context.Context, id int64) (*dto.FeedTokenResponse, error) {
	m.gotID = id
	return m.feed, m.err
}
func (m *mockUserService) ParseImportFile(_ io.Reader) ([]service.ImportUserRow, error) {
	return nil, m.err
}
func (m *mockUserService) ImportUsers(_ context.Context, _ []service.ImportUserRow) (*dto.ImportUserResponse, error) {
	return &dto.ImportUserResponse{}, m.err
}

// ── Mock MeetingService ──

type mockMeetingService struct {
	meeting   *model.Meeting
	section   *model.Section
	summaries []model.MeetingSummary
	total     int64
	err       error

	gotActor   service.Actor
	gotContent string
	gotDate    string
	lockCalls  int
}

func (m *mockMeetingService) Create(_ context.Context, _ *dto.CreateMeetingRequest, actor service.Actor) (*model.Meeting, error) {
	m.gotActor = actor
	return m.meeting, m.err
}
func (m *mockMeetingService) Get(_ context.Context, _ int64) (*model.Meeting, error) {
	return m.meeting, m.err
}
func (m *mockMeetingService) GetByDate(_ context.Context, date string) (*model.Meeting, error) {
	m.gotDate = date
	return m.meeting, m.err
}
func (m *mockMeetingService) GetLatest(_ context.Context) (*model.Meeting, error) {
	return m.meeting, m.err
}
func (m *mockMeetingService) List(_ context.Context, _ *dto.MeetingListRequest) ([]model.MeetingSummary, int64, error) {
	return m.summaries, m.total, m.err
}
func (m *mockMeetingService) Lock(_ context.Context, _ int64, _ service.Actor) (*model.Meeting, error) {
	m.lockCalls++
	return m.meeting, m.err
}
func (m *mockMeetingService) Unlock(_ context.Context, _ int64, _ service.Actor) (*model.Meeting, error) {
	return m.meeting, m.err
}
func (m *mockMeetingService) GetSection(_ context.Context, _ int64) (*model.Section, error) {
	return m.section, m.err
}
func (m *mockMeetingService) ListSections(_ context.Context, _ int64) ([]model.Section, error) {
	return nil, m.err
}
func (m *mockMeetingService) EditSection(_ context.Context, _ int64, content string, actor service.Actor) (*model.Section, error) {
	m.gotContent, m.gotActor = content, actor
	return m.section, m.err
}
func (m *mockMeetingService) CanEditSection(_ context.Context, _ service.Actor, _ *model.Section) (bool, error) {
	return true, m.err
}
func (m *mockMeetingService) FillStatus(_ context.Context, _ int64) (*dto.FillStatusResponse, error) {
	return &dto.FillStatusResponse{}, m.err
}
func (m *mockMeetingService) SetAttendance(_ context.Context, _ int64, _ *dto.SetAttendanceRequest) error {
	return m.err
}
func (m *mockMeetingService) RemoveAttendance(_ context.Context, _, _ int64) error {
	return m.err
}
func (m *mockMeetingService) ListAttendance(_ context.Context, _ int64) ([]model.MeetingAttendance, error) {
	return nil, m.err
}
func (m *mockMeetingService) Detail(_ context.Context, _ int64) (*model.MeetingDetail, error) {
	return nil, m.err
}
func (m *mockMeetingService) View(_ context.Context, _ int64, actor service.Actor) (*dto.MeetingViewResponse, error) {
	m.gotActor = actor
	if m.err != nil {
		return nil, m.err
	}
	return &dto.MeetingViewResponse{Meeting: *m.meeting}, nil
}

// ── Mock TodoService ──

type mockTodoService struct {
	todo *model.Todo
	err  error

	gotCarry       *dto.CarryForwardRequest
	gotIncludeDone bool
	gotListReq     *dto.TodoListRequest
}

func (m *mockTodoService) Create(_ context.Context, _ *dto.CreateTodoRequest, _ service.Actor) (*model.Todo, error) {
	return m.todo, m.err
}
func (m *mockTodoService) Get(_ context.Context, _ int64) (*model.Todo, error) {
	return m.todo, m.err
}
func (m *mockTodoService) Update(_ context.Context, _ int64, _ *dto.UpdateTodoRequest, _ service.Actor) (*model.Todo, error) {
	return m.todo, m.err
}
func (m *mockTodoService) Complete(_ context.Context, _ int64, _ service.Actor) (*model.Todo, error) {
	return m.todo, m.err
}
func (m *mockTodoService) Reopen(_ context.Context, _ int64, _ service.Actor) (*model.Todo, error) {
	return m.todo, m.err
}
func (m *mockTodoService) Delete(_ context.Context, _ int64, _ service.Actor) error {
	return m.err
}
func (m *mockTodoService) CarryForward(_ context.Context, _ int64, req *dto.CarryForwardRequest, _ service.Actor) (*model.Todo, error) {
	m.gotCarry = req
	return m.todo, m.err
}
func (m *mockTodoService) ListOpen(_ context.Context, req *dto.TodoListRequest) ([]model.TodoView, error) {
	m.gotListReq = req
	return []model.TodoView{}, m.err
}
func (m *mockTodoService) ListMine(_ context.Context, _ int64, includeDone bool) ([]model.TodoView, error) {
	m.gotIncludeDone = includeDone
	return []model.TodoView{}, m.err
}
func (m *mockTodoService) ListBySection(_ context.Context, _ int64) ([]model.Todo, error) {
	return nil, m.err
}

// ── Mock SearchService ──

type mockSearchService struct {
	rebuilt  int64
	err      error
	gotQuery string
	gotLimit int
}

func (m *mockSearchService) Search(_ context.Context, q string, limit int) (*dto.SearchResponse, error) {
	m.gotQuery, m.gotLimit = q, limit
	return &dto.SearchResponse{Query: q}, m.err
}
func (m *mockSearchService) Rebuild(_ context.Context) (int64, error) {
	return m.rebuilt, m.err
}
func (m *mockSearchService) Verify(_ context.Context) (*dto.IndexVerifyResponse, error) {
	return &dto.IndexVerifyResponse{Consistent: true}, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	markdown string
	buf      *bytes.Buffer
	filename string
	ics      string
	err      error
	gotToken string
}

func (m *mockExportService) Markdown(_ context.Context, _ int64) (string, string, error) {
	return m.markdown, m.filename, m.err
}
func (m *mockExportService) Excel(_ context.Context, _ int64) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) CalendarFeed(_ context.Context, token string) (string, error) {
	m.gotToken = token
	return m.ics, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set(middleware.CtxUserID, int64(7))
	c.Set(middleware.CtxRole, model.RoleAdmin)
	c.Set(middleware.CtxTokenJTI, "test-jti")
	c.Set(middleware.CtxTokenExp, 15*time.Minute)
}

// withAuth 模拟 JWT 中间件注入身份
func withAuth(fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		fn(c)
	}
}

// withMember 以普通成员身份注入
func withMember(fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		c.Set(middleware.CtxRole, model.RoleMember)
		fn(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "token", ExpiresIn: 900}}
	h := NewAuthHandler(mock, &mockUserService{})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Username: "alice", Password: "secret123"}))

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("期望 code=0，实际 %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockUserService{})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", strings.NewReader("invalid json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"InvalidCredentials", service.ErrInvalidCredentials, 401, 11001},
		{"Inactive", service.ErrUserInactive, 403, 11002},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{loginErr: tt.err}, &mockUserService{})
			r := gin.New()
			r.POST("/auth/login", h.Login)
			w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Username: "alice", Password: "wrong"}))

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际 %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望 code=%d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAuthHandler_Login_BodyTooLarge(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockUserService{})

	r := gin.New()
	r.Use(middleware.BodyLimit(16))
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Username: strings.Repeat("a", 100), Password: "x"}))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际 %d", w.Code)
	}
}

func TestAuthHandler_Logout_PassesTokenInfo(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, &mockUserService{})

	r := gin.New()
	r.POST("/auth/logout", withAuth(h.Logout))
	w := serve(r, "POST", "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" || mock.logoutTTL != 15*time.Minute {
		t.Errorf("登出应传入当前 jti 与剩余有效期，实际 jti=%s ttl=%v", mock.logoutJTI, mock.logoutTTL)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	users := &mockUserService{user: &model.User{ID: 7, Username: "alice", Role: model.RoleAdmin}}
	h := NewAuthHandler(&mockAuthService{}, users)

	r := gin.New()
	r.GET("/auth/me", withAuth(h.Me))
	r.GET("/anon/me", h.Me)

	if w := serve(r, "GET", "/auth/me", nil); w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if users.gotID != 7 {
		t.Errorf("应查询当前用户 7，实际 %d", users.gotID)
	}
	if w := serve(r, "GET", "/anon/me", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("未认证期望 401，实际 %d", w.Code)
	}
}

func TestAuthHandler_ChangePassword_WrongPassword(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{changePassErr: service.ErrWrongPassword}, &mockUserService{})

	r := gin.New()
	r.PUT("/auth/password", withAuth(h.ChangePassword))
	w := serve(r, "PUT", "/auth/password", jsonBody(dto.ChangePasswordRequest{OldPassword: "old12345", NewPassword: "new12345"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11003 {
		t.Errorf("期望 code=11003，实际 %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// UserHandler Tests
// ═══════════════════════════════════════════════════════════

func TestUserHandler_List_HidesPasswordHash(t *testing.T) {
	mock := &mockUserService{users: []model.User{{ID: 1, Username: "alice", PasswordHash: "secret-hash"}}}
	h := NewUserHandler(mock)

	r := gin.New()
	r.GET("/users", h.List)
	w := serve(r, "GET", "/users", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Error("响应不应包含密码哈希")
	}
}

func TestUserHandler_Update_SelfDisable(t *testing.T) {
	mock := &mockUserService{err: service.ErrUserSelfDisable}
	h := NewUserHandler(mock)

	inactive := false
	r := gin.New()
	r.PUT("/users/:id", withAuth(h.Update))
	w := serve(r, "PUT", "/users/7", jsonBody(dto.UpdateUserRequest{IsActive: &inactive}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
	if mock.gotID != 7 || mock.updated == nil || mock.updated.IsActive == nil {
		t.Error("请求参数未正确传入 Service")
	}
}

func TestUserHandler_FeedURL_UsesCurrentUser(t *testing.T) {
	mock := &mockUserService{feed: &dto.FeedTokenResponse{}}
	h := NewUserHandler(mock)

	r := gin.New()
	r.POST("/users/me/feed", withAuth(h.RegenerateFeedToken))
	if w := serve(r, "POST", "/users/me/feed", nil); w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.gotID != 7 {
		t.Errorf("应为当前用户 7 更换令牌，实际 %d", mock.gotID)
	}
}

func TestUserHandler_Import_MissingFile(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	r := gin.New()
	r.POST("/users/import", h.Import)
	w := serve(r, "POST", "/users/import", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// MeetingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestMeetingHandler_Create(t *testing.T) {
	mock := &mockMeetingService{meeting: &model.Meeting{ID: 1, Date: "2024-01-08", Status: model.MeetingOpen}}
	h := NewMeetingHandler(mock)

	r := gin.New()
	r.POST("/meetings", withAuth(h.Create))
	w := serve(r, "POST", "/meetings", jsonBody(dto.CreateMeetingRequest{Date: "2024-01-08"}))

	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际 %d", w.Code)
	}
	if mock.gotActor.UserID != 7 || !mock.gotActor.IsAdmin() {
		t.Errorf("操作者应取自上下文，实际 %+v", mock.gotActor)
	}
}

func TestMeetingHandler_Create_MissingDate(t *testing.T) {
	h := NewMeetingHandler(&mockMeetingService{})

	r := gin.New()
	r.POST("/meetings", withAuth(h.Create))
	w := serve(r, "POST", "/meetings", jsonBody(map[string]string{}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestMeetingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"DuplicateDate", apperrors.ErrDuplicateDate, 409, 14001},
		{"Locked", apperrors.ErrMeetingLocked, 423, 14002},
		{"Forbidden", service.ErrSectionForbidden, 403, 14003},
		{"NoTarget", apperrors.ErrNoTargetSection, 422, 15001},
		{"CarryOverride", service.ErrCarryOverrideForbidden, 403, 15003},
		{"NotFound", fmt.Errorf("%w: meeting 9", apperrors.ErrNotFound), 404, 10006},
		{"Constraint", fmt.Errorf("%w: fk", apperrors.ErrConstraintViolation), 409, 10007},
		{"InvalidDate", service.ErrInvalidDate, 400, 10001},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMeetingHandler(&mockMeetingService{err: tt.err})

			r := gin.New()
			r.GET("/meetings/:id", withAuth(h.View))
			w := serve(r, "GET", "/meetings/9", nil)

			if w.Code != tt.wantStatus {
				t.Errorf("期望状态 %d，实际 %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望 code=%d，实际 %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestMeetingHandler_InvalidID(t *testing.T) {
	mock := &mockMeetingService{}
	h := NewMeetingHandler(mock)

	r := gin.New()
	r.POST("/meetings/:id/lock", withAuth(h.Lock))
	for _, id := range []string{"abc", "0", "-3"} {
		if w := serve(r, "POST", "/meetings/"+id+"/lock", nil); w.Code != http.StatusBadRequest {
			t.Errorf("id=%s 期望 400，实际 %d", id, w.Code)
		}
	}
	if mock.lockCalls != 0 {
		t.Error("非法 ID 不应调用 Service")
	}
}

func TestMeetingHandler_List_Paged(t *testing.T) {
	mock := &mockMeetingService{
		summaries: []model.MeetingSummary{{Meeting: model.Meeting{ID: 2, Date: "2024-01-15"}}},
		total:     41,
	}
	h := NewMeetingHandler(mock)

	r := gin.New()
	r.GET("/meetings", h.List)
	w := serve(r, "GET", "/meetings?page=2&page_size=20", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var body struct {
		Data struct {
			Pagination response.Pagination `json:"pagination"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.Total != 41 || body.Data.Pagination.Page != 2 {
		t.Errorf("分页信息不正确: %+v", body.Data.Pagination)
	}
}

func TestMeetingHandler_GetByDate(t *testing.T) {
	mock := &mockMeetingService{meeting: &model.Meeting{ID: 1, Date: "2024-01-08"}}
	h := NewMeetingHandler(mock)

	r := gin.New()
	r.GET("/meetings/date/:date", h.GetByDate)
	if w := serve(r, "GET", "/meetings/date/2024-01-08", nil); w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.gotDate != "2024-01-08" {
		t.Errorf("日期参数未传入，实际 %q", mock.gotDate)
	}
}

func TestMeetingHandler_EditSection(t *testing.T) {
	mock := &mockMeetingService{section: &model.Section{ID: 3, Content: "shipped"}}
	h := NewMeetingHandler(mock)

	r := gin.New()
	r.PUT("/sections/:id", withAuth(h.EditSection))
	w := serve(r, "PUT", "/sections/3", jsonBody(dto.EditSectionRequest{Content: "shipped"}))

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.gotContent != "shipped" {
		t.Errorf("内容未传入 Service，实际 %q", mock.gotContent)
	}
}

// ═══════════════════════════════════════════════════════════
// TodoHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTodoHandler_CarryForward_EmptyBody(t *testing.T) {
	mock := &mockTodoService{todo: &model.Todo{ID: 2}}
	h := NewTodoHandler(mock)

	r := gin.New()
	r.POST("/todos/:id/carry", withAuth(h.CarryForward))
	w := serve(r, "POST", "/todos/1/carry", nil)

	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际 %d", w.Code)
	}
	if mock.gotCarry == nil {
		t.Error("空请求体也应传入非 nil 的请求参数")
	}
}

func TestTodoHandler_CarryForward_WithOptions(t *testing.T) {
	mock := &mockTodoService{todo: &model.Todo{ID: 2}}
	h := NewTodoHandler(mock)

	keep := true
	r := gin.New()
	r.POST("/todos/:id/carry", withAuth(h.CarryForward))
	serve(r, "POST", "/todos/1/carry", jsonBody(dto.CarryForwardRequest{KeepDueDate: &keep}))

	if mock.gotCarry == nil || mock.gotCarry.KeepDueDate == nil || !*mock.gotCarry.KeepDueDate {
		t.Error("keep_due_date 未传入 Service")
	}
}

func TestTodoHandler_CarryForward_NoTarget(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{err: apperrors.ErrNoTargetSection})

	r := gin.New()
	r.POST("/todos/:id/carry", withAuth(h.CarryForward))
	w := serve(r, "POST", "/todos/1/carry", nil)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("期望 422，实际 %d", w.Code)
	}
}

func TestTodoHandler_CarryForward_MemberOverrideForbidden(t *testing.T) {
	mock := &mockTodoService{todo: &model.Todo{ID: 2}}
	h := NewTodoHandler(mock)

	target := int64(3)
	r := gin.New()
	r.POST("/todos/:id/carry", withMember(h.CarryForward))
	w := serve(r, "POST", "/todos/1/carry", jsonBody(dto.CarryForwardRequest{TargetMeetingID: &target}))

	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 15003 {
		t.Errorf("期望 code=15003，实际 %d", resp.Code)
	}
	if mock.gotCarry != nil {
		t.Error("成员指定目标会议时不应调用 Service")
	}

	// 不指定目标会议时成员可以顺延
	w = serve(r, "POST", "/todos/1/carry", nil)
	if w.Code != http.StatusCreated {
		t.Errorf("成员自动顺延期望 201，实际 %d", w.Code)
	}
}

func TestTodoHandler_CarryForward_AdminOverride(t *testing.T) {
	mock := &mockTodoService{todo: &model.Todo{ID: 2}}
	h := NewTodoHandler(mock)

	target := int64(3)
	r := gin.New()
	r.POST("/todos/:id/carry", withAuth(h.CarryForward))
	w := serve(r, "POST", "/todos/1/carry", jsonBody(dto.CarryForwardRequest{TargetMeetingID: &target}))

	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际 %d", w.Code)
	}
	if mock.gotCarry == nil || mock.gotCarry.TargetMeetingID == nil || *mock.gotCarry.TargetMeetingID != 3 {
		t.Error("target_meeting_id 未传入 Service")
	}
}

func TestTodoHandler_Create_SpecialSection(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{err: service.ErrSpecialSection})

	r := gin.New()
	r.POST("/todos", withAuth(h.Create))
	w := serve(r, "POST", "/todos", jsonBody(dto.CreateTodoRequest{SectionID: 1, Text: "call vendor"}))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("期望 422，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 15002 {
		t.Errorf("期望 code=15002，实际 %d", resp.Code)
	}
}

func TestTodoHandler_Complete(t *testing.T) {
	h := NewTodoHandler(&mockTodoService{todo: &model.Todo{ID: 1}})

	r := gin.New()
	r.POST("/todos/:id/complete", withAuth(h.Complete))
	if w := serve(r, "POST", "/todos/1/complete", nil); w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestTodoHandler_ListQueries(t *testing.T) {
	mock := &mockTodoService{}
	h := NewTodoHandler(mock)

	r := gin.New()
	r.GET("/todos", h.ListOpen)
	r.GET("/todos/mine", withAuth(h.ListMine))

	if w := serve(r, "GET", "/todos?priority=high&overdue_only=true", nil); w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.gotListReq.Priority != "high" || !mock.gotListReq.OverdueOnly {
		t.Errorf("过滤条件未绑定: %+v", mock.gotListReq)
	}
	if w := serve(r, "GET", "/todos?priority=urgent", nil); w.Code != http.StatusBadRequest {
		t.Errorf("非法优先级期望 400，实际 %d", w.Code)
	}

	serve(r, "GET", "/todos/mine?include_done=true", nil)
	if !mock.gotIncludeDone {
		t.Error("include_done 未传入")
	}
}

// ═══════════════════════════════════════════════════════════
// SearchHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSearchHandler(t *testing.T) {
	mock := &mockSearchService{rebuilt: 12}
	h := NewSearchHandler(mock)

	r := gin.New()
	r.GET("/search", h.Search)
	r.POST("/search/rebuild", h.Rebuild)

	if w := serve(r, "GET", "/search?q=release&limit=5", nil); w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if mock.gotQuery != "release" || mock.gotLimit != 5 {
		t.Errorf("查询参数未传入: q=%q limit=%d", mock.gotQuery, mock.gotLimit)
	}

	w := serve(r, "POST", "/search/rebuild", nil)
	var body struct {
		Data dto.RebuildIndexResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Entries != 12 {
		t.Errorf("期望重建 12 条，实际 %d", body.Data.Entries)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Excel(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("fake-excel"), filename: "standup-2024-01-08.xlsx"}
	h := NewExportHandler(mock)

	r := gin.New()
	r.GET("/meetings/:id/export/xlsx", h.Excel)
	w := serve(r, "GET", "/meetings/1/export/xlsx", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Errorf("Content-Type 不正确: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "standup-2024-01-08.xlsx") {
		t.Errorf("Content-Disposition 不正确: %s", cd)
	}
	if w.Body.String() != "fake-excel" {
		t.Errorf("响应体不正确: %s", w.Body.String())
	}
}

func TestExportHandler_Markdown_NotFound(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: fmt.Errorf("%w: meeting 1", apperrors.ErrNotFound)})

	r := gin.New()
	r.GET("/meetings/:id/export/markdown", h.Markdown)
	if w := serve(r, "GET", "/meetings/1/export/markdown", nil); w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

func TestExportHandler_CalendarFeed(t *testing.T) {
	mock := &mockExportService{ics: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"}
	h := NewExportHandler(mock)

	r := gin.New()
	r.GET("/feed/:token", h.CalendarFeed)
	w := serve(r, "GET", "/feed/abc123.ics", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.gotToken != "abc123" {
		t.Errorf("应去掉 .ics 后缀，实际 token=%q", mock.gotToken)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type 不正确: %s", ct)
	}
}

func TestExportHandler_CalendarFeed_InvalidToken(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrInvalidFeedToken})

	r := gin.New()
	r.GET("/feed/:token", h.CalendarFeed)
	if w := serve(r, "GET", "/feed/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}
