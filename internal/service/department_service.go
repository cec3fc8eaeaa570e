package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
	apperrors "standup-tracker/pkg/errors"
)

// ── 部门模块业务错误 ──

var (
	ErrDepartmentNameExists = fmt.Errorf("%w: 部门名称已存在", apperrors.ErrConstraintViolation)
	ErrMultiplePrimary      = fmt.Errorf("%w: 每个部门至多一个主汇报人", ErrInvalidArgument)
	ErrDuplicateReporter    = fmt.Errorf("%w: 汇报人重复", ErrInvalidArgument)
	ErrDuplicateDepartment  = fmt.Errorf("%w: 排序列表中部门重复", ErrInvalidArgument)
)

// DepartmentService 部门登记业务接口
// 部门从不物理删除，只归档
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest) (*model.Department, error)
	GetByID(ctx context.Context, id int64) (*model.Department, error)
	List(ctx context.Context, req *dto.DepartmentListRequest) ([]model.Department, error)
	// ListActive 未归档部门，按 sort_order 排序；新会议据此生成分区
	ListActive(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*model.Department, error)
	Archive(ctx context.Context, id int64) error
	Unarchive(ctx context.Context, id int64) error
	// Reorder 按 ids 顺序重排，未列出的未归档部门依原顺序排在其后
	Reorder(ctx context.Context, ids []int64) error
	ListReporters(ctx context.Context, id int64) ([]model.DepartmentReporter, error)
	SetReporters(ctx context.Context, id int64, req *dto.SetReportersRequest) ([]model.DepartmentReporter, error)
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest) (*model.Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidArgument
	}

	dept := &model.Department{
		Name:      name,
		Color:     req.Color,
		IsSpecial: req.IsSpecial,
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Department.GetByName(ctx, name); err == nil {
			return ErrDepartmentNameExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		max, err := tx.Department.MaxSortOrder(ctx)
		if err != nil {
			return err
		}
		dept.SortOrder = max + 1

		return tx.Department.Create(ctx, dept)
	})
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrDepartmentNameExists
		}
		if !errors.Is(err, ErrDepartmentNameExists) {
			s.logger.Error("创建部门失败", zap.String("name", name), zap.Error(err))
		}
		return nil, err
	}

	return dept, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id int64) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "部门", id)
	}
	return dept, nil
}

func (s *departmentService) List(ctx context.Context, req *dto.DepartmentListRequest) ([]model.Department, error) {
	var depts []model.Department
	var err error

	if req.IncludeArchived {
		depts, err = s.repo.Department.ListAll(ctx)
	} else {
		depts, err = s.repo.Department.ListActive(ctx)
	}
	if err != nil {
		s.logger.Error("列出部门失败", zap.Error(err))
		return nil, err
	}
	return depts, nil
}

func (s *departmentService) ListActive(ctx context.Context) ([]model.Department, error) {
	return s.List(ctx, &dto.DepartmentListRequest{})
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*model.Department, error) {
	var dept *model.Department
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		dept, err = tx.Department.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "部门", id)
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return ErrInvalidArgument
			}
			if name != dept.Name {
				existing, err := tx.Department.GetByName(ctx, name)
				if err == nil && existing.ID != id {
					return ErrDepartmentNameExists
				}
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}
			dept.Name = name
		}
		if req.Color != nil {
			dept.Color = *req.Color
		}
		if req.IsSpecial != nil {
			dept.IsSpecial = *req.IsSpecial
		}

		// 已生成的分区保存的是快照，不受影响
		return tx.Department.Update(ctx, dept)
	})
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrDepartmentNameExists
		}
		return nil, err
	}
	return dept, nil
}

// ────────────────────── Archive / Unarchive ──────────────────────

// Archive 归档部门：立即退出新会议生成，已有分区的 department_id 不变
func (s *departmentService) Archive(ctx context.Context, id int64) error {
	if err := s.repo.Department.SetArchived(ctx, id, true); err != nil {
		return notFound(err, "部门", id)
	}
	s.logger.Info("部门已归档", zap.Int64("department_id", id))
	return nil
}

// Unarchive 恢复部门，排到未归档部门末尾以保持排序键唯一
func (s *departmentService) Unarchive(ctx context.Context, id int64) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		dept, err := tx.Department.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "部门", id)
		}
		if !dept.IsArchived {
			return nil
		}
		max, err := tx.Department.MaxSortOrder(ctx)
		if err != nil {
			return err
		}
		if err := tx.Department.SetSortOrder(ctx, id, max+1); err != nil {
			return err
		}
		return tx.Department.SetArchived(ctx, id, false)
	})
}

// ────────────────────── Reorder ──────────────────────

func (s *departmentService) Reorder(ctx context.Context, ids []int64) error {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return ErrDuplicateDepartment
		}
		seen[id] = true
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		n, err := tx.Department.CountByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("%w: 排序列表包含不存在的部门", apperrors.ErrNotFound)
		}

		active, err := tx.Department.ListActive(ctx)
		if err != nil {
			return err
		}
		order := append([]int64{}, ids...)
		for _, d := range active {
			if !seen[d.ID] {
				order = append(order, d.ID)
			}
		}

		for i, id := range order {
			if err := tx.Department.SetSortOrder(ctx, id, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("部门排序失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Reporters ──────────────────────

func (s *departmentService) ListReporters(ctx context.Context, id int64) ([]model.DepartmentReporter, error) {
	if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
		return nil, notFound(err, "部门", id)
	}
	return s.repo.Department.ListReporters(ctx, id)
}

func (s *departmentService) SetReporters(ctx context.Context, id int64, req *dto.SetReportersRequest) ([]model.DepartmentReporter, error) {
	primaries := 0
	users := make(map[int64]bool, len(req.Reporters))
	reporters := make([]model.DepartmentReporter, 0, len(req.Reporters))
	for _, r := range req.Reporters {
		if users[r.UserID] {
			return nil, ErrDuplicateReporter
		}
		users[r.UserID] = true
		if r.IsPrimary {
			primaries++
		}
		reporters = append(reporters, model.DepartmentReporter{UserID: r.UserID, IsPrimary: r.IsPrimary})
	}
	if primaries > 1 {
		return nil, ErrMultiplePrimary
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Department.GetByID(ctx, id); err != nil {
			return notFound(err, "部门", id)
		}
		for uid := range users {
			if _, err := tx.User.GetByID(ctx, uid); err != nil {
				return notFound(err, "用户", uid)
			}
		}
		return tx.Department.ReplaceReporters(ctx, id, reporters)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Department.ListReporters(ctx, id)
}
