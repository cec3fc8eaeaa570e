package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
	apperrors "standup-tracker/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
	ErrInvalidFeedToken   = fmt.Errorf("%w: 日历订阅令牌无效", apperrors.ErrNotFound)
)

// 日历订阅覆盖的时间窗口
const (
	feedPastDays   = 90
	feedFutureDays = 180
)

// ExportService 导出业务接口
//
// 导出内容均由 MeetingDetail 只读聚合生成；文件以 bytes.Buffer 返回，
// 由 Handler 层设置响应头后写入
type ExportService interface {
	// Markdown 导出单场会议为 Markdown
	Markdown(ctx context.Context, meetingID int64) (string, string, error)
	// Excel 导出单场会议为 xlsx（分区 + 待办两个 Sheet）
	Excel(ctx context.Context, meetingID int64) (*bytes.Buffer, string, error)
	// CalendarFeed 按订阅令牌生成 ICS：会议日程 + 该用户即将到期的待办
	CalendarFeed(ctx context.Context, feedToken string) (string, error)
}

type exportService struct {
	repo    *repository.Repository
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, baseURL string, logger *zap.Logger) ExportService {
	return &exportService{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		now:     nowUTC,
	}
}

// ────────────────────── Markdown ──────────────────────

func (s *exportService) Markdown(ctx context.Context, meetingID int64) (string, string, error) {
	d, err := loadDetail(ctx, s.repo, meetingID)
	if err != nil {
		return "", "", err
	}
	return RenderMarkdown(d), fmt.Sprintf("standup-%s.md", d.Meeting.Date), nil
}

// RenderMarkdown 将会议聚合渲染为 Markdown 文本
func RenderMarkdown(d *model.MeetingDetail) string {
	lines := []string{"# Standup — " + d.Meeting.Date, ""}

	if len(d.Attendance) > 0 {
		byStatus := map[string][]string{}
		for _, a := range d.Attendance {
			name := ""
			if a.User != nil {
				name = a.User.DisplayName
			}
			byStatus[a.Status] = append(byStatus[a.Status], name)
		}
		for _, st := range []struct{ status, label string }{
			{model.AttendancePresent, "Present"},
			{model.AttendanceRemote, "Remote"},
			{model.AttendanceAbsent, "Absent"},
		} {
			if names := byStatus[st.status]; len(names) > 0 {
				lines = append(lines, fmt.Sprintf("**%s:** %s", st.label, strings.Join(names, ", ")))
			}
		}
		lines = append(lines, "")
	}

	todos := d.TodosBySection()
	for _, sec := range d.Sections {
		prefix := "## "
		if sec.IsSpecial {
			prefix = "### "
		}
		lines = append(lines, prefix+sec.Name)
		if sec.Reporter != "" {
			lines = append(lines, "*Reporter: "+sec.Reporter+"*")
		}
		lines = append(lines, "")
		if sec.Content != "" {
			lines = append(lines, sec.Content)
		} else {
			lines = append(lines, "*No notes.*")
		}
		lines = append(lines, "")

		if items := todos[sec.ID]; len(items) > 0 {
			lines = append(lines, "**Action Items:**")
			for _, t := range items {
				check := " "
				if !t.IsOpen() {
					check = "x"
				}
				extra := ""
				if t.Priority == model.PriorityHigh {
					extra += " [HIGH]"
				}
				if t.DueDate != nil {
					extra += " (due " + *t.DueDate + ")"
				}
				lines = append(lines, fmt.Sprintf("- [%s] %s%s", check, t.Text, extra))
			}
			lines = append(lines, "")
		}
	}

	return strings.Join(lines, "\n")
}

// ────────────────────── Excel ──────────────────────

const (
	sheetSections = "Standup"
	sheetTodos    = "Action Items"
)

func (s *exportService) Excel(ctx context.Context, meetingID int64) (*bytes.Buffer, string, error) {
	d, err := loadDetail(ctx, s.repo, meetingID)
	if err != nil {
		return nil, "", err
	}
	users, err := s.repo.User.List(ctx, false)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, "", err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(sheetSections)
	f.SetActiveSheet(idx)
	f.NewSheet(sheetTodos)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	// 分区 Sheet
	f.SetCellValue(sheetSections, "A1", "Standup — "+d.Meeting.Date)
	f.MergeCell(sheetSections, "A1", "C1")
	f.SetCellStyle(sheetSections, "A1", "C1", headerStyle)
	writeRow(f, sheetSections, 2, "Section", "Reporter", "Notes")
	f.SetCellStyle(sheetSections, "A2", "C2", headerStyle)
	f.SetColWidth(sheetSections, "A", "B", 20)
	f.SetColWidth(sheetSections, "C", "C", 80)

	row := 3
	for _, sec := range d.Sections {
		writeRow(f, sheetSections, row, sec.Name, sec.Reporter, sec.Content)
		f.SetCellStyle(sheetSections, cell("C", row), cell("C", row), wrapStyle)
		row++
	}

	// 待办 Sheet
	sectionNames := make(map[int64]string, len(d.Sections))
	for _, sec := range d.Sections {
		sectionNames[sec.ID] = sec.Name
	}
	writeRow(f, sheetTodos, 1, "Section", "Action Item", "Priority", "Assignee", "Due", "Status")
	f.SetCellStyle(sheetTodos, "A1", "F1", headerStyle)
	f.SetColWidth(sheetTodos, "A", "A", 20)
	f.SetColWidth(sheetTodos, "B", "B", 60)
	f.SetColWidth(sheetTodos, "C", "F", 14)

	row = 2
	for _, t := range d.Todos {
		assignee, due, status := "", "", "open"
		if t.AssignedTo != nil {
			assignee = names[*t.AssignedTo]
		}
		if t.DueDate != nil {
			due = *t.DueDate
		}
		if !t.IsOpen() {
			status = "done"
			if t.CarriedToID != nil {
				status = "carried"
			}
		}
		writeRow(f, sheetTodos, row, sectionNames[t.SectionID], t.Text, t.Priority, assignee, due, status)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Int64("meeting_id", meetingID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("standup-%s.xlsx", d.Meeting.Date), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...string) {
	for i, v := range values {
		f.SetCellValue(sheet, cell(colName(i), row), v)
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// ────────────────────── ICS 订阅 ──────────────────────

func (s *exportService) CalendarFeed(ctx context.Context, feedToken string) (string, error) {
	if feedToken == "" {
		return "", ErrInvalidFeedToken
	}
	user, err := s.repo.User.GetByFeedToken(ctx, feedToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidFeedToken
		}
		return "", err
	}

	now := s.now()
	from := now.AddDate(0, 0, -feedPastDays).Format(model.DateLayout)
	to := now.AddDate(0, 0, feedFutureDays).Format(model.DateLayout)

	meetings, err := s.repo.Meeting.ListBetween(ctx, from, to)
	if err != nil {
		return "", err
	}
	todos, err := s.repo.Todo.ListDueBetween(ctx, user.ID, today(now), to)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//standup-tracker//feed//EN")
	cal.SetXWRCalName("Standup — " + user.DisplayName)

	for _, m := range meetings {
		day, err := time.Parse(model.DateLayout, m.Date)
		if err != nil {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("meeting-%d@standup-tracker", m.ID))
		ev.SetDtStampTime(now)
		ev.SetSummary("Standup")
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		if s.baseURL != "" {
			ev.SetURL(fmt.Sprintf("%s/meetings/%d", s.baseURL, m.ID))
		}
	}

	for _, t := range todos {
		if t.DueDate == nil {
			continue
		}
		day, err := time.Parse(model.DateLayout, *t.DueDate)
		if err != nil {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("todo-%d@standup-tracker", t.ID))
		ev.SetDtStampTime(now)
		summary := "Due: " + t.Text
		if t.Priority == model.PriorityHigh {
			summary = "[HIGH] " + summary
		}
		ev.SetSummary(summary)
		ev.SetDescription(fmt.Sprintf("%s · %s", t.SectionName, t.MeetingDate))
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		if s.baseURL != "" {
			ev.SetURL(fmt.Sprintf("%s/meetings/%d", s.baseURL, t.MeetingID))
		}
	}

	return cal.Serialize(), nil
}
