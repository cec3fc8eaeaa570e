package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"standup-tracker/internal/model"
)

// AnalyticsRepository 只读统计查询
type AnalyticsRepository interface {
	// RecentFill 按日期倒序取 [offset, offset+limit) 场会议的填写统计
	RecentFill(ctx context.Context, offset, limit int) ([]model.MeetingFill, error)
	CountMeetingsSince(ctx context.Context, since string) (int64, error)
	CountOpenTodos(ctx context.Context, overdueBefore string) (open, overdue int64, err error)
	AvgCloseDays(ctx context.Context) (*float64, error)
	// CountCreated / CountCompleted 统计 [from, to) 日期区间
	CountCreated(ctx context.Context, from, to string) (int64, error)
	CountCompleted(ctx context.Context, from, to string) (int64, error)
	HeatCells(ctx context.Context, meetingIDs []int64) ([]model.HeatCell, error)
	OpenByAssignee(ctx context.Context) ([]model.AssigneePriorityCount, error)
	StaleTodos(ctx context.Context, createdBefore time.Time) ([]model.StaleTodo, error)
	RecentSectionEdits(ctx context.Context, limit int) ([]model.ActivityRow, error)
	RecentTodosCreated(ctx context.Context, limit int) ([]model.ActivityRow, error)
	RecentTodosCompleted(ctx context.Context, limit int) ([]model.ActivityRow, error)
}

// analyticsRepo AnalyticsRepository 的 GORM 实现
type analyticsRepo struct {
	db *gorm.DB
}

// NewAnalyticsRepo 创建 AnalyticsRepository 实例
func NewAnalyticsRepo(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepo{db: db}
}

func (r *analyticsRepo) RecentFill(ctx context.Context, offset, limit int) ([]model.MeetingFill, error) {
	var rows []model.MeetingFill
	err := r.db.WithContext(ctx).
		Raw(`SELECT m.id AS meeting_id, m.date AS date,
				COUNT(s.id) AS total,
				COALESCE(SUM(CASE WHEN s.content != '' THEN 1 ELSE 0 END), 0) AS filled,
				COALESCE(SUM(CASE WHEN s.is_special = 0 THEN 1 ELSE 0 END), 0) AS regular_total,
				COALESCE(SUM(CASE WHEN s.is_special = 0 AND s.content != '' THEN 1 ELSE 0 END), 0) AS regular_filled
			FROM meetings m
			LEFT JOIN sections s ON s.meeting_id = m.id
			WHERE m.id IN (SELECT id FROM meetings ORDER BY date DESC LIMIT ? OFFSET ?)
			GROUP BY m.id, m.date
			ORDER BY m.date DESC`, limit, offset).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) CountMeetingsSince(ctx context.Context, since string) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&model.Meeting{})
	if since != "" {
		db = db.Where("date >= ?", since)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *analyticsRepo) CountOpenTodos(ctx context.Context, overdueBefore string) (int64, int64, error) {
	var row struct {
		Open    int64
		Overdue int64
	}
	err := r.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) AS open,
				COALESCE(SUM(CASE WHEN due_date IS NOT NULL AND due_date < ? THEN 1 ELSE 0 END), 0) AS overdue
			FROM todos WHERE completed_at IS NULL`, overdueBefore).
		Scan(&row).Error
	return row.Open, row.Overdue, err
}

func (r *analyticsRepo) AvgCloseDays(ctx context.Context) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).
		Raw(`SELECT AVG(julianday(completed_at) - julianday(created_at))
			FROM todos WHERE completed_at IS NOT NULL`).
		Row().Scan(&avg)
	if err != nil || !avg.Valid {
		return nil, err
	}
	return &avg.Float64, nil
}

func (r *analyticsRepo) CountCreated(ctx context.Context, from, to string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Todo{}).
		Where("date(created_at) >= ? AND date(created_at) < ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *analyticsRepo) CountCompleted(ctx context.Context, from, to string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Todo{}).
		Where("completed_at IS NOT NULL AND date(completed_at) >= ? AND date(completed_at) < ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *analyticsRepo) HeatCells(ctx context.Context, meetingIDs []int64) ([]model.HeatCell, error) {
	var cells []model.HeatCell
	if len(meetingIDs) == 0 {
		return cells, nil
	}
	err := r.db.WithContext(ctx).
		Raw(`SELECT meeting_id, department_id, MAX(content != '') AS filled
			FROM sections
			WHERE meeting_id IN ? AND department_id IS NOT NULL
			GROUP BY meeting_id, department_id`, meetingIDs).
		Scan(&cells).Error
	return cells, err
}

func (r *analyticsRepo) OpenByAssignee(ctx context.Context) ([]model.AssigneePriorityCount, error) {
	var rows []model.AssigneePriorityCount
	err := r.db.WithContext(ctx).
		Raw(`SELECT t.assigned_to AS assigned_to, u.display_name AS name, t.priority AS priority, COUNT(*) AS count
			FROM todos t
			LEFT JOIN users u ON u.id = t.assigned_to
			WHERE t.completed_at IS NULL
			GROUP BY t.assigned_to, u.display_name, t.priority
			ORDER BY count DESC`).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) StaleTodos(ctx context.Context, createdBefore time.Time) ([]model.StaleTodo, error) {
	var rows []model.StaleTodo
	err := r.db.WithContext(ctx).
		Raw(`SELECT t.id, t.text, t.priority, t.due_date, t.created_at,
				u.display_name AS assignee_name, s.name AS section_name, m.date AS meeting_date
			FROM todos t
			JOIN sections s ON s.id = t.section_id
			JOIN meetings m ON m.id = s.meeting_id
			LEFT JOIN users u ON u.id = t.assigned_to
			WHERE t.completed_at IS NULL AND julianday(t.created_at) <= julianday(?)
			ORDER BY t.created_at ASC, t.id ASC`, createdBefore).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) RecentSectionEdits(ctx context.Context, limit int) ([]model.ActivityRow, error) {
	var rows []model.ActivityRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT s.name AS subject, s.reporter AS actor, m.date AS meeting_date, s.updated_at AS timestamp
			FROM sections s
			JOIN meetings m ON m.id = s.meeting_id
			WHERE s.updated_at IS NOT NULL AND s.content != ''
			ORDER BY s.updated_at DESC
			LIMIT ?`, limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) RecentTodosCreated(ctx context.Context, limit int) ([]model.ActivityRow, error) {
	var rows []model.ActivityRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT t.text AS subject, u.display_name AS actor, m.date AS meeting_date, t.created_at AS timestamp
			FROM todos t
			JOIN sections s ON s.id = t.section_id
			JOIN meetings m ON m.id = s.meeting_id
			LEFT JOIN users u ON u.id = t.created_by
			ORDER BY t.created_at DESC
			LIMIT ?`, limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) RecentTodosCompleted(ctx context.Context, limit int) ([]model.ActivityRow, error) {
	var rows []model.ActivityRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT t.text AS subject, u.display_name AS actor, m.date AS meeting_date, t.completed_at AS timestamp
			FROM todos t
			JOIN sections s ON s.id = t.section_id
			JOIN meetings m ON m.id = s.meeting_id
			LEFT JOIN users u ON u.id = COALESCE(t.completed_by, t.assigned_to)
			WHERE t.completed_at IS NOT NULL
			ORDER BY t.completed_at DESC
			LIMIT ?`, limit).
		Scan(&rows).Error
	return rows, err
}
