package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
	apperrors "standup-tracker/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUsernameExists  = fmt.Errorf("%w: 用户名已存在", apperrors.ErrConstraintViolation)
	ErrUserSelfDisable = fmt.Errorf("%w: 不能停用自己或修改自己的角色", ErrInvalidArgument)
)

// UserService 用户业务接口
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]model.User, error)
	Update(ctx context.Context, id int64, req *dto.UpdateUserRequest, actor Actor) (*model.User, error)
	ResetPassword(ctx context.Context, id int64) (*dto.ResetPasswordResponse, error)
	// RegenerateFeedToken 更换日历订阅令牌，旧地址立即失效
	RegenerateFeedToken(ctx context.Context, id int64) (*dto.FeedTokenResponse, error)
	FeedURL(ctx context.Context, id int64) (*dto.FeedTokenResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row         int
	Username    string
	DisplayName string
	Email       string
	Role        string
}

type userService struct {
	repo    *repository.Repository
	baseURL string
	logger  *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, baseURL string, logger *zap.Logger) UserService {
	return &userService{repo: repo, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Email:        optionalString(req.Email),
		PasswordHash: string(hash),
		Role:         normalizeRole(req.Role),
		IsActive:     true,
		FeedToken:    newFeedToken(),
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户已创建", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "用户", id)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]model.User, error) {
	users, err := s.repo.User.List(ctx, req.ActiveOnly)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}
	return users, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest, actor Actor) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "用户", id)
	}

	if id == actor.UserID {
		if (req.IsActive != nil && !*req.IsActive) || (req.Role != nil && *req.Role != user.Role) {
			return nil, ErrUserSelfDisable
		}
	}

	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Email != nil {
		user.Email = optionalString(*req.Email)
	}
	if req.Role != nil {
		user.Role = normalizeRole(*req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id int64) (*dto.ResetPasswordResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "用户", id)
	}

	// 生成 10 位随机密码（保证包含字母和数字）
	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── Feed token ──────────────────────

func (s *userService) RegenerateFeedToken(ctx context.Context, id int64) (*dto.FeedTokenResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "用户", id)
	}
	user.FeedToken = newFeedToken()
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新订阅令牌失败", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}
	return &dto.FeedTokenResponse{FeedURL: s.feedURL(user.FeedToken)}, nil
}

func (s *userService) FeedURL(ctx context.Context, id int64) (*dto.FeedTokenResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "用户", id)
	}
	return &dto.FeedTokenResponse{FeedURL: s.feedURL(user.FeedToken)}, nil
}

func (s *userService) feedURL(token string) string {
	return fmt.Sprintf("%s/api/v1/feed/%s.ics", s.baseURL, token)
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 500

var (
	ErrImportNoData      = fmt.Errorf("%w: Excel 文件无数据行（第一行为表头）", ErrInvalidArgument)
	ErrImportTooManyRows = fmt.Errorf("%w: 数据行数超过上限 %d 行", ErrInvalidArgument, maxImportRows)
	ErrImportBadHeader   = fmt.Errorf("%w: Excel 表头缺少必要列（用户名/姓名）", ErrInvalidArgument)
)

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: 无法解析 Excel 文件: %v", ErrInvalidArgument, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 表头支持任意列序
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["username"] < 0 || colIndex["display_name"] < 0 {
		return nil, ErrImportBadHeader
	}

	get := func(row []string, col string) string {
		if idx := colIndex[col]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:         i + 1,
			Username:    get(row, "username"),
			DisplayName: get(row, "display_name"),
			Email:       get(row, "email"),
			Role:        get(row, "role"),
		}
		// 跳过全空行
		if item.Username == "" && item.DisplayName == "" && item.Email == "" && item.Role == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析表头，返回列名 -> 列索引
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{"username": -1, "display_name": -1, "email": -1, "role": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "用户名", "username":
			idx["username"] = i
		case "姓名", "display_name", "name":
			idx["display_name"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "角色", "role":
			idx["role"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	// 第一阶段：逐行校验，不写库
	type validatedRow struct {
		row      ImportUserRow
		password string
		hash     []byte
	}
	var valid []validatedRow
	seen := make(map[string]bool, len(rows))

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	for _, row := range rows {
		if row.Username == "" || row.DisplayName == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		if row.Role != "" && row.Role != model.RoleAdmin && row.Role != model.RoleMember {
			fail(row.Row, fmt.Sprintf("角色无效: %s", row.Role))
			continue
		}
		if seen[row.Username] {
			fail(row.Row, fmt.Sprintf("文件内用户名重复: %s", row.Username))
			continue
		}
		if _, err := s.repo.User.GetByUsername(ctx, row.Username); err == nil {
			fail(row.Row, fmt.Sprintf("用户名已存在: %s", row.Username))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		password, err := generateTempPassword(10)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}
		seen[row.Username] = true
		valid = append(valid, validatedRow{row: row, password: password, hash: hash})
	}

	if len(valid) == 0 {
		return resp, nil
	}

	// 第二阶段：单事务批量写入，任一失败全部回滚
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, vr := range valid {
			user := &model.User{
				Username:           vr.row.Username,
				DisplayName:        vr.row.DisplayName,
				Email:              optionalString(vr.row.Email),
				PasswordHash:       string(vr.hash),
				Role:               normalizeRole(vr.row.Role),
				IsActive:           true,
				MustChangePassword: true,
				FeedToken:          newFeedToken(),
			}
			if err := tx.User.Create(ctx, user); err != nil {
				s.logger.Error("导入用户写入失败，事务回滚", zap.Int("row", vr.row.Row), zap.Error(err))
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", vr.row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, vr := range valid {
		resp.Success++
		resp.Credentials = append(resp.Credentials, dto.ImportedCredential{
			Username: vr.row.Username, TempPassword: vr.password,
		})
	}
	return resp, nil
}

// ── 内部辅助 ──

func normalizeRole(role string) string {
	if role == model.RoleAdmin {
		return model.RoleAdmin
	}
	return model.RoleMember
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func newFeedToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}
	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}
	return string(result), nil
}
