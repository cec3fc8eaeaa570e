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

// ── 待办模块业务错误 ──

var (
	ErrSpecialSection    = fmt.Errorf("%w: 特殊分区不能添加待办", apperrors.ErrConstraintViolation)
	ErrTodoAlreadyClosed = fmt.Errorf("%w: 待办已完成，无需顺延", ErrInvalidArgument)
	ErrTodoCarried       = fmt.Errorf("%w: 待办已顺延，不能重新打开", ErrInvalidArgument)
	ErrEmptyText         = fmt.Errorf("%w: 待办内容不能为空", ErrInvalidArgument)

	ErrCarryOverrideForbidden = errors.New("只有管理员可以指定顺延目标会议")
)

// TodoService 待办业务接口
type TodoService interface {
	Create(ctx context.Context, req *dto.CreateTodoRequest, actor Actor) (*model.Todo, error)
	Get(ctx context.Context, id int64) (*model.Todo, error)
	Update(ctx context.Context, id int64, req *dto.UpdateTodoRequest, actor Actor) (*model.Todo, error)
	// Complete 幂等：已完成的待办原样返回
	Complete(ctx context.Context, id int64, actor Actor) (*model.Todo, error)
	Reopen(ctx context.Context, id int64, actor Actor) (*model.Todo, error)
	Delete(ctx context.Context, id int64, actor Actor) error
	// CarryForward 复制到目标会议的对应分区，原待办关闭并保留
	CarryForward(ctx context.Context, id int64, req *dto.CarryForwardRequest, actor Actor) (*model.Todo, error)
	ListOpen(ctx context.Context, req *dto.TodoListRequest) ([]model.TodoView, error)
	ListMine(ctx context.Context, userID int64, includeDone bool) ([]model.TodoView, error)
	ListBySection(ctx context.Context, sectionID int64) ([]model.Todo, error)
}

type todoService struct {
	repo   *repository.Repository
	index  *indexer
	logger *zap.Logger
}

// NewTodoService 创建 TodoService 实例
func NewTodoService(repo *repository.Repository, index *indexer, logger *zap.Logger) TodoService {
	return &todoService{repo: repo, index: index, logger: logger}
}

// ────────────────────── 增删改 ──────────────────────

func (s *todoService) Create(ctx context.Context, req *dto.CreateTodoRequest, actor Actor) (*model.Todo, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if req.DueDate != nil && *req.DueDate != "" && !model.ValidDate(*req.DueDate) {
		return nil, ErrInvalidDate
	}

	todo := &model.Todo{
		SectionID:  req.SectionID,
		Text:       text,
		Priority:   model.NormalizePriority(req.Priority),
		AssignedTo: req.AssignedTo,
		DueDate:    blankToNil(req.DueDate),
		CreatedBy:  actor.ref(),
		CreatedAt:  nowUTC(),
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		section, err := tx.Section.GetByID(ctx, req.SectionID)
		if err != nil {
			return notFound(err, "分区", req.SectionID)
		}
		if _, err := lockedCheck(ctx, tx, section.MeetingID); err != nil {
			return err
		}
		if section.IsSpecial {
			return ErrSpecialSection
		}
		if err := s.checkAssignee(ctx, tx, req.AssignedTo); err != nil {
			return err
		}

		if err := tx.Todo.Create(ctx, todo); err != nil {
			return apperrors.FromDB(err)
		}
		s.index.syncTodo(ctx, tx, todo.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("待办已创建", zap.Int64("todo_id", todo.ID), zap.Int64("section_id", todo.SectionID))
	return todo, nil
}

func (s *todoService) Get(ctx context.Context, id int64) (*model.Todo, error) {
	todo, err := s.repo.Todo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "待办", id)
	}
	return todo, nil
}

func (s *todoService) Update(ctx context.Context, id int64, req *dto.UpdateTodoRequest, actor Actor) (*model.Todo, error) {
	fields := make(map[string]interface{})
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		if text == "" {
			return nil, ErrEmptyText
		}
		fields["text"] = text
	}
	if req.Priority != nil {
		fields["priority"] = model.NormalizePriority(*req.Priority)
	}
	switch {
	case req.ClearAssignee:
		fields["assigned_to"] = nil
	case req.AssignedTo != nil:
		fields["assigned_to"] = *req.AssignedTo
	}
	switch {
	case req.ClearDueDate:
		fields["due_date"] = nil
	case req.DueDate != nil:
		if !model.ValidDate(*req.DueDate) {
			return nil, ErrInvalidDate
		}
		fields["due_date"] = *req.DueDate
	}

	return s.mutate(ctx, id, func(tx *repository.Repository, todo *model.Todo) error {
		if !req.ClearAssignee {
			if err := s.checkAssignee(ctx, tx, req.AssignedTo); err != nil {
				return err
			}
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Todo.UpdateFields(ctx, id, fields); err != nil {
			return err
		}
		if _, ok := fields["text"]; ok {
			s.index.syncTodo(ctx, tx, id)
		}
		return nil
	})
}

func (s *todoService) Complete(ctx context.Context, id int64, actor Actor) (*model.Todo, error) {
	return s.mutate(ctx, id, func(tx *repository.Repository, todo *model.Todo) error {
		if !todo.IsOpen() {
			return nil
		}
		return tx.Todo.UpdateFields(ctx, id, map[string]interface{}{
			"completed_at": nowUTC(),
			"completed_by": actor.ref(),
		})
	})
}

func (s *todoService) Reopen(ctx context.Context, id int64, actor Actor) (*model.Todo, error) {
	return s.mutate(ctx, id, func(tx *repository.Repository, todo *model.Todo) error {
		if todo.IsOpen() {
			return nil
		}
		if todo.CarriedToID != nil {
			return ErrTodoCarried
		}
		return tx.Todo.UpdateFields(ctx, id, map[string]interface{}{
			"completed_at": nil,
			"completed_by": nil,
		})
	})
}

func (s *todoService) Delete(ctx context.Context, id int64, actor Actor) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.loadUnlocked(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.Todo.Delete(ctx, id); err != nil {
			return err
		}
		s.index.removeTodo(ctx, tx, id)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("待办已删除", zap.Int64("todo_id", id), zap.Int64("actor", actor.UserID))
	return nil
}

// mutate 在事务内加载待办并校验所属会议未锁定，执行 fn 后返回最新记录
func (s *todoService) mutate(ctx context.Context, id int64, fn func(tx *repository.Repository, todo *model.Todo) error) (*model.Todo, error) {
	var result *model.Todo
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		todo, err := s.loadUnlocked(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, todo); err != nil {
			return err
		}
		result, err = tx.Todo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadUnlocked 读取待办；所属会议已锁定时返回 ErrMeetingLocked
func (s *todoService) loadUnlocked(ctx context.Context, tx *repository.Repository, id int64) (*model.Todo, error) {
	todo, err := tx.Todo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "待办", id)
	}
	section, err := tx.Section.GetByID(ctx, todo.SectionID)
	if err != nil {
		return nil, notFound(err, "分区", todo.SectionID)
	}
	if _, err := lockedCheck(ctx, tx, section.MeetingID); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) checkAssignee(ctx context.Context, tx *repository.Repository, userID *int64) error {
	if userID == nil {
		return nil
	}
	if _, err := tx.User.GetByID(ctx, *userID); err != nil {
		return notFound(err, "用户", *userID)
	}
	return nil
}

// ────────────────────── 顺延 ──────────────────────

func (s *todoService) CarryForward(ctx context.Context, id int64, req *dto.CarryForwardRequest, actor Actor) (*model.Todo, error) {
	if req.TargetMeetingID != nil && !actor.IsAdmin() {
		return nil, ErrCarryOverrideForbidden
	}

	var created *model.Todo
	var targetDate string

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		source, err := s.loadUnlocked(ctx, tx, id)
		if err != nil {
			return err
		}
		if !source.IsOpen() {
			return ErrTodoAlreadyClosed
		}
		srcSection, err := tx.Section.GetByID(ctx, source.SectionID)
		if err != nil {
			return notFound(err, "分区", source.SectionID)
		}

		var target *model.Section
		if req.TargetMeetingID != nil {
			if *req.TargetMeetingID == srcSection.MeetingID {
				return fmt.Errorf("%w: 目标会议与来源相同", apperrors.ErrNoTargetSection)
			}
			target, err = tx.Section.FindInMeeting(ctx, *req.TargetMeetingID, srcSection.DepartmentID, srcSection.Name)
		} else {
			srcMeeting, merr := tx.Meeting.GetByID(ctx, srcSection.MeetingID)
			if merr != nil {
				return notFound(merr, "会议", srcSection.MeetingID)
			}
			target, err = tx.Section.FindCarryTarget(ctx, srcMeeting.Date, srcSection.DepartmentID, srcSection.Name)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", apperrors.ErrNoTargetSection, srcSection.Name)
		}
		if err != nil {
			return err
		}

		targetMeeting, err := lockedCheck(ctx, tx, target.MeetingID)
		if err != nil {
			return err
		}
		targetDate = targetMeeting.Date

		keepDue, err := s.keepDueDate(ctx, tx, req.KeepDueDate)
		if err != nil {
			return err
		}

		now := nowUTC()
		sourceID := source.ID
		created = &model.Todo{
			SectionID:     target.ID,
			Text:          source.Text,
			Priority:      source.Priority,
			AssignedTo:    source.AssignedTo,
			CreatedBy:     source.CreatedBy,
			CarriedFromID: &sourceID,
			CreatedAt:     now,
		}
		if keepDue {
			created.DueDate = source.DueDate
		}
		if err := tx.Todo.Create(ctx, created); err != nil {
			return apperrors.FromDB(err)
		}

		if err := tx.Todo.UpdateFields(ctx, source.ID, map[string]interface{}{
			"completed_at":  now,
			"completed_by":  actor.ref(),
			"carried_to_id": created.ID,
			"note":          "carried forward to " + targetDate,
		}); err != nil {
			return err
		}

		s.index.syncTodo(ctx, tx, created.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("待办已顺延",
		zap.Int64("source_id", id), zap.Int64("todo_id", created.ID), zap.String("target_date", targetDate))
	return created, nil
}

// keepDueDate 请求未指定时读取 todo.carry_due_date 设置
func (s *todoService) keepDueDate(ctx context.Context, tx *repository.Repository, requested *bool) (bool, error) {
	if requested != nil {
		return *requested, nil
	}
	v, ok, err := readSetting(ctx, tx, model.SettingCarryDueDate)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return parseBool(v, false), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *todoService) ListOpen(ctx context.Context, req *dto.TodoListRequest) ([]model.TodoView, error) {
	filter := repository.TodoFilter{
		Priority:     req.Priority,
		AssignedTo:   req.AssignedTo,
		Unassigned:   req.Unassigned,
		DepartmentID: req.DepartmentID,
		IncludeDone:  req.IncludeDone,
	}
	if req.OverdueOnly {
		filter.OverdueBefore = today(nowUTC())
	}

	todos, err := s.repo.Todo.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询待办失败", zap.Error(err))
		return nil, err
	}
	return todos, nil
}

func (s *todoService) ListMine(ctx context.Context, userID int64, includeDone bool) ([]model.TodoView, error) {
	uid := userID
	return s.repo.Todo.List(ctx, repository.TodoFilter{AssignedTo: &uid, IncludeDone: includeDone})
}

func (s *todoService) ListBySection(ctx context.Context, sectionID int64) ([]model.Todo, error) {
	if _, err := s.repo.Section.GetByID(ctx, sectionID); err != nil {
		return nil, notFound(err, "分区", sectionID)
	}
	return s.repo.Todo.ListBySection(ctx, sectionID)
}

// blankToNil 空字符串视为未设置
func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
