package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
	apperrors "standup-tracker/pkg/errors"
)

// ── 会议模块业务错误 ──

var (
	ErrInvalidDate       = fmt.Errorf("%w: 日期格式应为 YYYY-MM-DD", ErrInvalidArgument)
	ErrConflictingSource = fmt.Errorf("%w: 模板与复制来源不能同时指定", ErrInvalidArgument)
	ErrSectionForbidden  = errors.New("无权编辑该分区")
)

// fallbackSection 部门登记为空时使用的内置分区
type fallbackSection struct {
	name      string
	isSpecial bool
}

// defaultSections 全新安装、尚未配置部门时的分区列表
var defaultSections = []fallbackSection{
	{"Engineering", false},
	{"Design", false},
	{"Product", false},
	{"QA", false},
	{"Infrastructure", false},
	{"Support", false},
	{"Operations", false},
	{"PTO / Out of Office", true},
	{"Shoutouts", true},
}

// MeetingService 会议生命周期业务接口
type MeetingService interface {
	// Create 创建会议并在同一事务内生成分区；同一日期重复创建返回 ErrDuplicateDate
	Create(ctx context.Context, req *dto.CreateMeetingRequest, actor Actor) (*model.Meeting, error)
	Get(ctx context.Context, id int64) (*model.Meeting, error)
	GetByDate(ctx context.Context, date string) (*model.Meeting, error)
	GetLatest(ctx context.Context) (*model.Meeting, error)
	List(ctx context.Context, req *dto.MeetingListRequest) ([]model.MeetingSummary, int64, error)
	// Lock / Unlock 幂等；管理员校验由调用方负责
	Lock(ctx context.Context, id int64, actor Actor) (*model.Meeting, error)
	Unlock(ctx context.Context, id int64, actor Actor) (*model.Meeting, error)

	GetSection(ctx context.Context, id int64) (*model.Section, error)
	ListSections(ctx context.Context, meetingID int64) ([]model.Section, error)
	// EditSection 更新分区内容并在同一事务内同步检索索引
	EditSection(ctx context.Context, sectionID int64, content string, actor Actor) (*model.Section, error)
	CanEditSection(ctx context.Context, actor Actor, section *model.Section) (bool, error)
	FillStatus(ctx context.Context, meetingID int64) (*dto.FillStatusResponse, error)

	SetAttendance(ctx context.Context, meetingID int64, req *dto.SetAttendanceRequest) error
	RemoveAttendance(ctx context.Context, meetingID, userID int64) error
	ListAttendance(ctx context.Context, meetingID int64) ([]model.MeetingAttendance, error)

	// Detail 会议、分区、待办、出勤的只读聚合，供导出使用
	Detail(ctx context.Context, meetingID int64) (*model.MeetingDetail, error)
	View(ctx context.Context, meetingID int64, actor Actor) (*dto.MeetingViewResponse, error)
}

type meetingService struct {
	repo   *repository.Repository
	index  *indexer
	logger *zap.Logger
}

// NewMeetingService 创建 MeetingService 实例
func NewMeetingService(repo *repository.Repository, index *indexer, logger *zap.Logger) MeetingService {
	return &meetingService{repo: repo, index: index, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *meetingService) Create(ctx context.Context, req *dto.CreateMeetingRequest, actor Actor) (*model.Meeting, error) {
	if !model.ValidDate(req.Date) {
		return nil, ErrInvalidDate
	}
	if req.TemplateID != nil && req.CopyFromID != nil {
		return nil, ErrConflictingSource
	}

	meeting := &model.Meeting{
		Date:       req.Date,
		Status:     model.MeetingOpen,
		TemplateID: req.TemplateID,
		CreatedBy:  actor.ref(),
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Meeting.GetByDate(ctx, req.Date); err == nil {
			return apperrors.ErrDuplicateDate
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var sections []model.Section
		var err error
		switch {
		case req.CopyFromID != nil:
			sections, err = s.sectionsFromMeeting(ctx, tx, *req.CopyFromID, req.CarryContent)
		case req.TemplateID != nil:
			sections, err = s.sectionsFromTemplate(ctx, tx, *req.TemplateID)
		default:
			sections, err = s.sectionsFromRegistry(ctx, tx)
		}
		if err != nil {
			return err
		}

		if err := tx.Meeting.Create(ctx, meeting); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.ErrDuplicateDate
			}
			return err
		}

		for i := range sections {
			sections[i].MeetingID = meeting.ID
		}
		if err := tx.Section.CreateBatch(ctx, sections); err != nil {
			return err
		}

		for _, sec := range sections {
			if sec.Filled() {
				s.index.syncSection(ctx, tx, sec.ID)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateDate) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrDuplicateDate, req.Date)
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("创建会议失败", zap.String("date", req.Date), zap.Error(err))
		}
		return nil, apperrors.FromDB(err)
	}

	s.logger.Info("会议已创建", zap.Int64("meeting_id", meeting.ID), zap.String("date", meeting.Date))
	return meeting, nil
}

// sectionsFromRegistry 每个未归档部门一个分区，汇报人取部门主汇报人
func (s *meetingService) sectionsFromRegistry(ctx context.Context, tx *repository.Repository) ([]model.Section, error) {
	depts, err := tx.Department.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if len(depts) == 0 {
		sections := make([]model.Section, 0, len(defaultSections))
		for i, fs := range defaultSections {
			sections = append(sections, model.Section{Name: fs.name, SortOrder: i, IsSpecial: fs.isSpecial})
		}
		return sections, nil
	}

	sections := make([]model.Section, 0, len(depts))
	for i := range depts {
		sec, err := s.snapshotDepartment(ctx, tx, &depts[i], depts[i].SortOrder, "")
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// sectionsFromTemplate 按模板顺序生成分区并预填内容，跳过已归档部门
func (s *meetingService) sectionsFromTemplate(ctx context.Context, tx *repository.Repository, templateID int64) ([]model.Section, error) {
	resolved, err := resolveTemplate(ctx, tx, templateID)
	if err != nil {
		return nil, err
	}

	sections := make([]model.Section, 0, len(resolved))
	for i := range resolved {
		if resolved[i].Department.IsArchived {
			continue
		}
		sec, err := s.snapshotDepartment(ctx, tx, &resolved[i].Department, resolved[i].SortOrder, resolved[i].DefaultContent)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// sectionsFromMeeting 复制来源会议的分区结构；内容默认清空
func (s *meetingService) sectionsFromMeeting(ctx context.Context, tx *repository.Repository, sourceID int64, carryContent bool) ([]model.Section, error) {
	if _, err := tx.Meeting.GetByID(ctx, sourceID); err != nil {
		return nil, notFound(err, "来源会议", sourceID)
	}
	source, err := tx.Section.ListByMeeting(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	sections := make([]model.Section, 0, len(source))
	for _, src := range source {
		sec := model.Section{
			DepartmentID: src.DepartmentID,
			ReporterID:   src.ReporterID,
			Name:         src.Name,
			Reporter:     src.Reporter,
			SortOrder:    src.SortOrder,
			IsSpecial:    src.IsSpecial,
		}
		if carryContent {
			sec.Content = src.Content
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// snapshotDepartment 复制部门当前的名称、特殊标记与主汇报人
func (s *meetingService) snapshotDepartment(ctx context.Context, tx *repository.Repository, dept *model.Department, sortOrder int, content string) (model.Section, error) {
	deptID := dept.ID
	sec := model.Section{
		DepartmentID: &deptID,
		Name:         dept.Name,
		SortOrder:    sortOrder,
		IsSpecial:    dept.IsSpecial,
		Content:      content,
	}

	primary, err := tx.Department.PrimaryReporter(ctx, dept.ID)
	switch {
	case err == nil:
		uid := primary.UserID
		sec.ReporterID = &uid
		if primary.User != nil {
			sec.Reporter = primary.User.DisplayName
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return sec, err
	}
	return sec, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *meetingService) Get(ctx context.Context, id int64) (*model.Meeting, error) {
	m, err := s.repo.Meeting.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "会议", id)
	}
	return m, nil
}

func (s *meetingService) GetByDate(ctx context.Context, date string) (*model.Meeting, error) {
	if !model.ValidDate(date) {
		return nil, ErrInvalidDate
	}
	m, err := s.repo.Meeting.GetByDate(ctx, date)
	if err != nil {
		return nil, notFound(err, "会议", date)
	}
	return m, nil
}

func (s *meetingService) GetLatest(ctx context.Context) (*model.Meeting, error) {
	m, err := s.repo.Meeting.GetLatest(ctx)
	if err != nil {
		return nil, notFound(err, "会议", "latest")
	}
	return m, nil
}

func (s *meetingService) List(ctx context.Context, req *dto.MeetingListRequest) ([]model.MeetingSummary, int64, error) {
	items, total, err := s.repo.Meeting.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出会议失败", zap.Error(err))
		return nil, 0, err
	}
	return items, total, nil
}

// ────────────────────── Lock / Unlock ──────────────────────

func (s *meetingService) Lock(ctx context.Context, id int64, actor Actor) (*model.Meeting, error) {
	var meeting *model.Meeting
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		m, err := tx.Meeting.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "会议", id)
		}
		if !m.IsLocked() {
			now := nowUTC()
			if err := tx.Meeting.SetLock(ctx, id, actor.ref(), &now); err != nil {
				return err
			}
		}
		meeting, err = tx.Meeting.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("会议已锁定", zap.Int64("meeting_id", id), zap.Int64("actor", actor.UserID))
	return meeting, nil
}

func (s *meetingService) Unlock(ctx context.Context, id int64, actor Actor) (*model.Meeting, error) {
	var meeting *model.Meeting
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		m, err := tx.Meeting.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "会议", id)
		}
		if m.IsLocked() {
			if err := tx.Meeting.ClearLock(ctx, id); err != nil {
				return err
			}
		}
		meeting, err = tx.Meeting.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("会议已解锁", zap.Int64("meeting_id", id), zap.Int64("actor", actor.UserID))
	return meeting, nil
}

// ────────────────────── Sections ──────────────────────

func (s *meetingService) GetSection(ctx context.Context, id int64) (*model.Section, error) {
	sec, err := s.repo.Section.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "分区", id)
	}
	return sec, nil
}

func (s *meetingService) ListSections(ctx context.Context, meetingID int64) ([]model.Section, error) {
	if _, err := s.repo.Meeting.GetByID(ctx, meetingID); err != nil {
		return nil, notFound(err, "会议", meetingID)
	}
	return s.repo.Section.ListByMeeting(ctx, meetingID)
}

func (s *meetingService) EditSection(ctx context.Context, sectionID int64, content string, actor Actor) (*model.Section, error) {
	var section *model.Section
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		sec, err := tx.Section.GetByID(ctx, sectionID)
		if err != nil {
			return notFound(err, "分区", sectionID)
		}
		// 写事务内重新读取会议状态，与并发的锁定操作按提交顺序决出先后
		if _, err := lockedCheck(ctx, tx, sec.MeetingID); err != nil {
			return err
		}
		ok, err := canEdit(ctx, tx, actor, sec)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSectionForbidden
		}

		if err := tx.Section.UpdateContent(ctx, sectionID, content, actor.ref(), nowUTC()); err != nil {
			return err
		}
		s.index.syncSection(ctx, tx, sectionID)

		section, err = tx.Section.GetByID(ctx, sectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return section, nil
}

// CanEditSection 锁定会议不可编辑；管理员可编辑；分区汇报人或部门汇报人可编辑
func (s *meetingService) CanEditSection(ctx context.Context, actor Actor, section *model.Section) (bool, error) {
	meeting, err := s.repo.Meeting.GetByID(ctx, section.MeetingID)
	if err != nil {
		return false, notFound(err, "会议", section.MeetingID)
	}
	if meeting.IsLocked() {
		return false, nil
	}
	return canEdit(ctx, s.repo, actor, section)
}

func canEdit(ctx context.Context, repo *repository.Repository, actor Actor, section *model.Section) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if section.ReporterID != nil && *section.ReporterID == actor.UserID {
		return true, nil
	}
	if section.DepartmentID != nil {
		return repo.Department.IsReporter(ctx, *section.DepartmentID, actor.UserID)
	}
	return false, nil
}

// lockedCheck 读取会议，已锁定时返回 ErrMeetingLocked
func lockedCheck(ctx context.Context, tx *repository.Repository, meetingID int64) (*model.Meeting, error) {
	m, err := tx.Meeting.GetByID(ctx, meetingID)
	if err != nil {
		return nil, notFound(err, "会议", meetingID)
	}
	if m.IsLocked() {
		return m, fmt.Errorf("%w: %s", apperrors.ErrMeetingLocked, m.Date)
	}
	return m, nil
}

func (s *meetingService) FillStatus(ctx context.Context, meetingID int64) (*dto.FillStatusResponse, error) {
	filled, total, err := s.repo.Section.FillStatus(ctx, meetingID)
	if err != nil {
		s.logger.Error("查询填写进度失败", zap.Int64("meeting_id", meetingID), zap.Error(err))
		return nil, err
	}
	return &dto.FillStatusResponse{Filled: filled, Total: total}, nil
}

// ────────────────────── Attendance ──────────────────────

func (s *meetingService) SetAttendance(ctx context.Context, meetingID int64, req *dto.SetAttendanceRequest) error {
	status := req.Status
	if status == "" {
		status = model.AttendancePresent
	}
	if !model.ValidAttendanceStatus(status) {
		return ErrInvalidArgument
	}

	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := lockedCheck(ctx, tx, meetingID); err != nil {
			return err
		}
		if _, err := tx.User.GetByID(ctx, req.UserID); err != nil {
			return notFound(err, "用户", req.UserID)
		}
		return tx.Attendance.Upsert(ctx, &model.MeetingAttendance{
			MeetingID: meetingID,
			UserID:    req.UserID,
			Status:    status,
		})
	})
}

func (s *meetingService) RemoveAttendance(ctx context.Context, meetingID, userID int64) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := lockedCheck(ctx, tx, meetingID); err != nil {
			return err
		}
		return tx.Attendance.Delete(ctx, meetingID, userID)
	})
}

func (s *meetingService) ListAttendance(ctx context.Context, meetingID int64) ([]model.MeetingAttendance, error) {
	if _, err := s.repo.Meeting.GetByID(ctx, meetingID); err != nil {
		return nil, notFound(err, "会议", meetingID)
	}
	return s.repo.Attendance.ListByMeeting(ctx, meetingID)
}

// ────────────────────── Detail / View ──────────────────────

func (s *meetingService) Detail(ctx context.Context, meetingID int64) (*model.MeetingDetail, error) {
	return loadDetail(ctx, s.repo, meetingID)
}

// loadDetail 读取会议及其分区、待办、出勤
func loadDetail(ctx context.Context, repo *repository.Repository, meetingID int64) (*model.MeetingDetail, error) {
	meeting, err := repo.Meeting.GetByID(ctx, meetingID)
	if err != nil {
		return nil, notFound(err, "会议", meetingID)
	}
	sections, err := repo.Section.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	todos, err := repo.Todo.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	attendance, err := repo.Attendance.ListByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	return &model.MeetingDetail{
		Meeting:    *meeting,
		Sections:   sections,
		Todos:      todos,
		Attendance: attendance,
	}, nil
}

func (s *meetingService) View(ctx context.Context, meetingID int64, actor Actor) (*dto.MeetingViewResponse, error) {
	detail, err := s.Detail(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	bySection := detail.TodosBySection()
	resp := &dto.MeetingViewResponse{
		Meeting:    detail.Meeting,
		Sections:   make([]dto.SectionResponse, 0, len(detail.Sections)),
		Attendance: detail.Attendance,
	}
	for i := range detail.Sections {
		sec := &detail.Sections[i]
		editable := false
		if !detail.Meeting.IsLocked() {
			if editable, err = canEdit(ctx, s.repo, actor, sec); err != nil {
				return nil, err
			}
		}
		todos := bySection[sec.ID]
		if todos == nil {
			todos = []model.Todo{}
		}
		resp.Sections = append(resp.Sections, dto.SectionResponse{Section: *sec, CanEdit: editable, Todos: todos})
		resp.Fill.Total++
		if sec.Filled() {
			resp.Fill.Filled++
		}
	}
	return resp, nil
}
