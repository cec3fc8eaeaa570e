package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
)

// 统计窗口
const (
	kpiWindow        = 10
	fillRateMeetings = 20
	velocityWeeks    = 12
	heatmapMeetings  = 15
	staleDays        = 14
	activityLimit    = 20
	activityTextMax  = 50
)

// AnalyticsService 只读统计业务接口
type AnalyticsService interface {
	KPIs(ctx context.Context) (*dto.KPIResponse, error)
	// FillRate 最近 limit 场会议，按日期升序
	FillRate(ctx context.Context, limit int) ([]dto.FillRatePoint, error)
	Velocity(ctx context.Context, weeks int) ([]dto.VelocityPoint, error)
	Heatmap(ctx context.Context, limit int) (*dto.HeatmapResponse, error)
	ByAssignee(ctx context.Context) ([]dto.AssigneeLoad, error)
	Stale(ctx context.Context, days int) ([]model.StaleTodo, error)
	Activity(ctx context.Context, limit int) ([]model.Activity, error)
	// Dashboard 以默认窗口汇总全部指标
	Dashboard(ctx context.Context) (*dto.AnalyticsResponse, error)
}

type analyticsService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyticsService 创建 AnalyticsService 实例
func NewAnalyticsService(repo *repository.Repository, logger *zap.Logger) AnalyticsService {
	return newAnalyticsService(repo, logger, nowUTC)
}

func newAnalyticsService(repo *repository.Repository, logger *zap.Logger, now func() time.Time) *analyticsService {
	return &analyticsService{repo: repo, logger: logger, now: now}
}

// ────────────────────── KPI ──────────────────────

func (s *analyticsService) KPIs(ctx context.Context) (*dto.KPIResponse, error) {
	now := s.now()
	kpi := &dto.KPIResponse{FillRateTrend: "flat"}

	total, err := s.repo.Analytics.CountMeetingsSince(ctx, "")
	if err != nil {
		return nil, err
	}
	kpi.TotalMeetings = total

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format(model.DateLayout)
	if kpi.MeetingsThisMonth, err = s.repo.Analytics.CountMeetingsSince(ctx, monthStart); err != nil {
		return nil, err
	}

	last, err := s.repo.Analytics.RecentFill(ctx, 0, kpiWindow)
	if err != nil {
		return nil, err
	}
	kpi.FillRate = windowFillRate(last)

	prev, err := s.repo.Analytics.RecentFill(ctx, kpiWindow, kpiWindow)
	if err != nil {
		return nil, err
	}
	if len(prev) > 0 {
		prevRate := windowFillRate(prev)
		switch {
		case kpi.FillRate > prevRate:
			kpi.FillRateTrend = "up"
		case kpi.FillRate < prevRate:
			kpi.FillRateTrend = "down"
		}
	}

	if kpi.OpenTodos, kpi.OverdueTodos, err = s.repo.Analytics.CountOpenTodos(ctx, today(now)); err != nil {
		return nil, err
	}

	avg, err := s.repo.Analytics.AvgCloseDays(ctx)
	if err != nil {
		return nil, err
	}
	if avg != nil {
		v := math.Round(*avg*10) / 10
		kpi.AvgCloseDays = &v
	}

	return kpi, nil
}

func windowFillRate(rows []model.MeetingFill) int {
	var filled, total int64
	for _, r := range rows {
		filled += r.Filled
		total += r.Total
	}
	return percent(filled, total)
}

func percent(part, whole int64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// ────────────────────── 时间序列 ──────────────────────

func (s *analyticsService) FillRate(ctx context.Context, limit int) ([]dto.FillRatePoint, error) {
	if limit <= 0 {
		limit = fillRateMeetings
	}
	rows, err := s.repo.Analytics.RecentFill(ctx, 0, limit)
	if err != nil {
		return nil, err
	}

	points := make([]dto.FillRatePoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		points = append(points, dto.FillRatePoint{
			Date:       r.Date,
			FillPct:    percent(r.Filled, r.Total),
			RegularPct: percent(r.RegularFilled, r.RegularTotal),
		})
	}
	return points, nil
}

// Velocity 以今天为最后一周的末尾，向前切分 weeks 个 7 天窗口
func (s *analyticsService) Velocity(ctx context.Context, weeks int) ([]dto.VelocityPoint, error) {
	if weeks <= 0 {
		weeks = velocityWeeks
	}
	now := s.now()

	points := make([]dto.VelocityPoint, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		from := now.AddDate(0, 0, -(i*7 + 6)).Format(model.DateLayout)
		to := now.AddDate(0, 0, -(i*7 - 1)).Format(model.DateLayout)

		created, err := s.repo.Analytics.CountCreated(ctx, from, to)
		if err != nil {
			return nil, err
		}
		completed, err := s.repo.Analytics.CountCompleted(ctx, from, to)
		if err != nil {
			return nil, err
		}
		points = append(points, dto.VelocityPoint{WeekStart: from, Created: created, Completed: completed})
	}
	return points, nil
}

func (s *analyticsService) Heatmap(ctx context.Context, limit int) (*dto.HeatmapResponse, error) {
	if limit <= 0 {
		limit = heatmapMeetings
	}
	recent, err := s.repo.Analytics.RecentFill(ctx, 0, limit)
	if err != nil {
		return nil, err
	}
	depts, err := s.repo.Department.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(recent))
	ids := make([]int64, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		dates = append(dates, recent[i].Date)
		ids = append(ids, recent[i].MeetingID)
	}

	cells, err := s.repo.Analytics.HeatCells(ctx, ids)
	if err != nil {
		return nil, err
	}
	type key struct{ meeting, dept int64 }
	status := make(map[key]bool, len(cells))
	for _, c := range cells {
		status[key{c.MeetingID, c.DepartmentID}] = c.Filled
	}

	resp := &dto.HeatmapResponse{Meetings: dates, Departments: make([]dto.HeatmapRow, 0, len(depts))}
	for _, d := range depts {
		row := dto.HeatmapRow{Department: d.Name, IsSpecial: d.IsSpecial, Cells: make([]dto.HeatmapCell, 0, len(ids))}
		for i, mid := range ids {
			cell := dto.HeatmapCell{Date: dates[i], Status: "missing"}
			if filled, ok := status[key{mid, d.ID}]; ok {
				cell.Status = "empty"
				if filled {
					cell.Status = "filled"
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		resp.Departments = append(resp.Departments, row)
	}
	return resp, nil
}

// ────────────────────── 待办分布 ──────────────────────

func (s *analyticsService) ByAssignee(ctx context.Context) ([]dto.AssigneeLoad, error) {
	rows, err := s.repo.Analytics.OpenByAssignee(ctx)
	if err != nil {
		return nil, err
	}

	var order []string
	loads := make(map[string]*dto.AssigneeLoad)
	for _, r := range rows {
		name := "Unassigned"
		if r.Name != nil && *r.Name != "" {
			name = *r.Name
		}
		load, ok := loads[name]
		if !ok {
			load = &dto.AssigneeLoad{Name: name}
			loads[name] = load
			order = append(order, name)
		}
		switch r.Priority {
		case model.PriorityHigh:
			load.High += r.Count
		case model.PriorityLow:
			load.Low += r.Count
		default:
			load.Normal += r.Count
		}
		load.Total += r.Count
	}

	result := make([]dto.AssigneeLoad, 0, len(order))
	for _, name := range order {
		result = append(result, *loads[name])
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Total > result[j].Total })
	return result, nil
}

func (s *analyticsService) Stale(ctx context.Context, days int) ([]model.StaleTodo, error) {
	if days <= 0 {
		days = staleDays
	}
	now := s.now()
	rows, err := s.repo.Analytics.StaleTodos(ctx, now.AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].AgeDays = int(now.Sub(rows[i].CreatedAt).Hours() / 24)
	}
	return rows, nil
}

// ────────────────────── 最近动态 ──────────────────────

func (s *analyticsService) Activity(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = activityLimit
	}

	edits, err := s.repo.Analytics.RecentSectionEdits(ctx, limit)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Analytics.RecentTodosCreated(ctx, limit)
	if err != nil {
		return nil, err
	}
	completed, err := s.repo.Analytics.RecentTodosCompleted(ctx, limit)
	if err != nil {
		return nil, err
	}

	items := make([]model.Activity, 0, len(edits)+len(created)+len(completed))
	for _, r := range edits {
		items = append(items, toActivity(model.ActivitySectionEdit, "Updated "+r.Subject, r))
	}
	for _, r := range created {
		items = append(items, toActivity(model.ActivityTodoCreated, "Created: "+truncate(r.Subject, activityTextMax), r))
	}
	for _, r := range completed {
		items = append(items, toActivity(model.ActivityTodoCompleted, "Completed: "+truncate(r.Subject, activityTextMax), r))
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func toActivity(kind, text string, r model.ActivityRow) model.Activity {
	actor := "Someone"
	if r.Actor != nil && *r.Actor != "" {
		actor = *r.Actor
	}
	return model.Activity{Type: kind, Text: text, Actor: actor, MeetingDate: r.MeetingDate, Timestamp: r.Timestamp}
}

// truncate 按字符截断
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (s *analyticsService) Dashboard(ctx context.Context) (*dto.AnalyticsResponse, error) {
	var (
		resp = &dto.AnalyticsResponse{}
		err  error
	)
	if resp.KPIs, err = s.KPIs(ctx); err != nil {
		s.logger.Error("统计 KPI 失败", zap.Error(err))
		return nil, err
	}
	if resp.FillRate, err = s.FillRate(ctx, fillRateMeetings); err != nil {
		return nil, err
	}
	if resp.Velocity, err = s.Velocity(ctx, velocityWeeks); err != nil {
		return nil, err
	}
	if resp.Heatmap, err = s.Heatmap(ctx, heatmapMeetings); err != nil {
		return nil, err
	}
	if resp.ByAssignee, err = s.ByAssignee(ctx); err != nil {
		return nil, err
	}
	if resp.Stale, err = s.Stale(ctx, staleDays); err != nil {
		return nil, err
	}
	if resp.Activity, err = s.Activity(ctx, activityLimit); err != nil {
		return nil, err
	}
	return resp, nil
}
