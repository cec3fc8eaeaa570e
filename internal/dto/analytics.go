package dto

import "standup-tracker/internal/model"

// ── 统计分析 DTO ──

// KPIResponse 仪表盘关键指标
type KPIResponse struct {
	TotalMeetings     int64    `json:"total_meetings"`
	MeetingsThisMonth int64    `json:"meetings_this_month"`
	FillRate          int      `json:"fill_rate"`
	FillRateTrend     string   `json:"fill_rate_trend"`
	OpenTodos         int64    `json:"open_todos"`
	OverdueTodos      int64    `json:"overdue_todos"`
	AvgCloseDays      *float64 `json:"avg_close_days"`
}

// FillRatePoint 单场会议的填写率
type FillRatePoint struct {
	Date       string `json:"date"`
	FillPct    int    `json:"fill_pct"`
	RegularPct int    `json:"regular_pct"`
}

// VelocityPoint 一周内新建/完成的待办数
type VelocityPoint struct {
	WeekStart string `json:"week_start"`
	Created   int64  `json:"created"`
	Completed int64  `json:"completed"`
}

// HeatmapCell 部门在某场会议的填写状态：missing / filled / empty
type HeatmapCell struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// HeatmapRow 单个部门的一行
type HeatmapRow struct {
	Department string        `json:"department"`
	IsSpecial  bool          `json:"is_special"`
	Cells      []HeatmapCell `json:"cells"`
}

// HeatmapResponse 部门 × 会议 热力图
type HeatmapResponse struct {
	Meetings    []string     `json:"meetings"`
	Departments []HeatmapRow `json:"departments"`
}

// AssigneeLoad 负责人未完成待办的优先级分布
type AssigneeLoad struct {
	Name   string `json:"name"`
	High   int64  `json:"high"`
	Normal int64  `json:"normal"`
	Low    int64  `json:"low"`
	Total  int64  `json:"total"`
}

// AnalyticsResponse 分析页全部数据
type AnalyticsResponse struct {
	KPIs       *KPIResponse      `json:"kpis"`
	FillRate   []FillRatePoint   `json:"fill_rate"`
	Velocity   []VelocityPoint   `json:"velocity"`
	Heatmap    *HeatmapResponse  `json:"heatmap"`
	ByAssignee []AssigneeLoad    `json:"by_assignee"`
	Stale      []model.StaleTodo `json:"stale"`
	Activity   []model.Activity  `json:"activity"`
}
