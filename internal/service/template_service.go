package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
	apperrors "standup-tracker/pkg/errors"
)

// ErrTemplateNameExists 模板名称重复
var ErrTemplateNameExists = fmt.Errorf("%w: 模板名称已存在", apperrors.ErrConstraintViolation)

// TemplateService 会议模板业务接口
type TemplateService interface {
	Create(ctx context.Context, req *dto.CreateTemplateRequest, actor Actor) (*dto.TemplateDetailResponse, error)
	// SaveFromMeeting 以会议当前的分区布局与内容保存为模板，无部门的分区跳过
	SaveFromMeeting(ctx context.Context, meetingID int64, req *dto.SaveTemplateFromMeetingRequest, actor Actor) (*dto.TemplateDetailResponse, error)
	Get(ctx context.Context, id int64) (*dto.TemplateDetailResponse, error)
	List(ctx context.Context) ([]model.MeetingTemplate, error)
	Update(ctx context.Context, id int64, req *dto.UpdateTemplateRequest) (*dto.TemplateDetailResponse, error)
	Delete(ctx context.Context, id int64) error
	// Resolve 按模板顺序返回 (部门, 预填内容)，读取顺序稳定
	Resolve(ctx context.Context, id int64) ([]dto.ResolvedTemplateSection, error)
}

type templateService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTemplateService 创建 TemplateService 实例
func NewTemplateService(repo *repository.Repository, logger *zap.Logger) TemplateService {
	return &templateService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *templateService) Create(ctx context.Context, req *dto.CreateTemplateRequest, actor Actor) (*dto.TemplateDetailResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidArgument
	}

	tpl := &model.MeetingTemplate{Name: name, Description: req.Description, CreatedBy: actor.ref()}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Template.Create(ctx, tpl); err != nil {
			return err
		}
		sections, err := s.buildSections(ctx, tx, req.Sections)
		if err != nil {
			return err
		}
		return tx.Template.ReplaceSections(ctx, tpl.ID, sections)
	})
	if err != nil {
		return nil, s.translate(err, name)
	}

	return s.Get(ctx, tpl.ID)
}

// ────────────────────── SaveFromMeeting ──────────────────────

func (s *templateService) SaveFromMeeting(ctx context.Context, meetingID int64, req *dto.SaveTemplateFromMeetingRequest, actor Actor) (*dto.TemplateDetailResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidArgument
	}

	tpl := &model.MeetingTemplate{Name: name, Description: req.Description, CreatedBy: actor.ref()}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Meeting.GetByID(ctx, meetingID); err != nil {
			return notFound(err, "会议", meetingID)
		}
		meetingSections, err := tx.Section.ListByMeeting(ctx, meetingID)
		if err != nil {
			return err
		}
		if err := tx.Template.Create(ctx, tpl); err != nil {
			return err
		}

		sections := make([]model.TemplateSection, 0, len(meetingSections))
		for _, sec := range meetingSections {
			if sec.DepartmentID == nil {
				continue
			}
			sections = append(sections, model.TemplateSection{
				DepartmentID:   *sec.DepartmentID,
				SortOrder:      len(sections),
				DefaultContent: sec.Content,
			})
		}
		return tx.Template.ReplaceSections(ctx, tpl.ID, sections)
	})
	if err != nil {
		return nil, s.translate(err, name)
	}

	return s.Get(ctx, tpl.ID)
}

// ────────────────────── Get / List / Resolve ──────────────────────

func (s *templateService) Get(ctx context.Context, id int64) (*dto.TemplateDetailResponse, error) {
	tpl, err := s.repo.Template.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "模板", id)
	}
	sections, err := s.repo.Template.ListSections(ctx, id)
	if err != nil {
		s.logger.Error("查询模板分区失败", zap.Int64("template_id", id), zap.Error(err))
		return nil, err
	}
	tpl.Sections = sections
	return &dto.TemplateDetailResponse{MeetingTemplate: *tpl, Resolved: resolveSections(sections)}, nil
}

func (s *templateService) List(ctx context.Context) ([]model.MeetingTemplate, error) {
	tpls, err := s.repo.Template.List(ctx)
	if err != nil {
		s.logger.Error("列出模板失败", zap.Error(err))
		return nil, err
	}
	return tpls, nil
}

func (s *templateService) Resolve(ctx context.Context, id int64) ([]dto.ResolvedTemplateSection, error) {
	return resolveTemplate(ctx, s.repo, id)
}

// resolveTemplate 供会议创建在事务内复用
func resolveTemplate(ctx context.Context, repo *repository.Repository, id int64) ([]dto.ResolvedTemplateSection, error) {
	if _, err := repo.Template.GetByID(ctx, id); err != nil {
		return nil, notFound(err, "模板", id)
	}
	sections, err := repo.Template.ListSections(ctx, id)
	if err != nil {
		return nil, err
	}
	return resolveSections(sections), nil
}

func resolveSections(sections []model.TemplateSection) []dto.ResolvedTemplateSection {
	out := make([]dto.ResolvedTemplateSection, 0, len(sections))
	for _, ts := range sections {
		if ts.Department == nil {
			continue
		}
		out = append(out, dto.ResolvedTemplateSection{
			Department:     *ts.Department,
			SortOrder:      ts.SortOrder,
			DefaultContent: ts.DefaultContent,
		})
	}
	return out
}

// ────────────────────── Update / Delete ──────────────────────

func (s *templateService) Update(ctx context.Context, id int64, req *dto.UpdateTemplateRequest) (*dto.TemplateDetailResponse, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidArgument
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Template.GetByID(ctx, id); err != nil {
			return notFound(err, "模板", id)
		}
		if len(fields) > 0 {
			if err := tx.Template.UpdateFields(ctx, id, fields); err != nil {
				return err
			}
		}
		if req.Sections != nil {
			sections, err := s.buildSections(ctx, tx, *req.Sections)
			if err != nil {
				return err
			}
			return tx.Template.ReplaceSections(ctx, id, sections)
		}
		return nil
	})
	if err != nil {
		name, _ := fields["name"].(string)
		return nil, s.translate(err, name)
	}

	return s.Get(ctx, id)
}

func (s *templateService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Template.Delete(ctx, id); err != nil {
		return notFound(err, "模板", id)
	}
	return nil
}

// ── 内部辅助 ──

// buildSections 校验部门存在，sort_order 取输入顺序
func (s *templateService) buildSections(ctx context.Context, tx *repository.Repository, inputs []dto.TemplateSectionInput) ([]model.TemplateSection, error) {
	sections := make([]model.TemplateSection, 0, len(inputs))
	for i, in := range inputs {
		if _, err := tx.Department.GetByID(ctx, in.DepartmentID); err != nil {
			return nil, notFound(err, "部门", in.DepartmentID)
		}
		sections = append(sections, model.TemplateSection{
			DepartmentID:   in.DepartmentID,
			SortOrder:      i,
			DefaultContent: in.DefaultContent,
		})
	}
	return sections, nil
}

func (s *templateService) translate(err error, name string) error {
	if apperrors.IsUniqueViolation(err) {
		return ErrTemplateNameExists
	}
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, ErrInvalidArgument) {
		return err
	}
	s.logger.Error("保存模板失败", zap.String("name", name), zap.Error(err))
	return apperrors.FromDB(err)
}
