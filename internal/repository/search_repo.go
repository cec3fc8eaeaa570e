package repository

import (
	"context"

	"gorm.io/gorm"

	"standup-tracker/internal/model"
)

// 高亮占位符（Unicode 私用区），HTML 转义后再替换为 <mark> 标签
const (
	MarkOpen  = "\ue000"
	MarkClose = "\ue001"
)

// sectionProjection 分区在检索索引中的投影；空内容的分区不入索引
const sectionProjection = `SELECT 'section' AS type, CAST(s.id AS TEXT) AS source_id, CAST(m.id AS TEXT) AS meeting_id,
	m.date AS meeting_date, s.name AS section_name, s.reporter AS reporter, s.content AS content
	FROM sections s JOIN meetings m ON m.id = s.meeting_id
	WHERE s.content != ''`

// todoProjection 待办在检索索引中的投影（沿用所属分区的名称与汇报人）
const todoProjection = `SELECT 'todo' AS type, CAST(t.id AS TEXT) AS source_id, CAST(m.id AS TEXT) AS meeting_id,
	m.date AS meeting_date, s.name AS section_name, s.reporter AS reporter, t.text AS content
	FROM todos t JOIN sections s ON s.id = t.section_id JOIN meetings m ON m.id = s.meeting_id`

const indexColumns = "type, source_id, meeting_id, meeting_date, section_name, reporter, content"

// SearchRepository FTS5 检索索引数据访问接口
//
// 索引是 sections/todos 的派生投影，只做先删后插，不做原地更新
type SearchRepository interface {
	SyncSection(ctx context.Context, sectionID int64) error
	SyncTodo(ctx context.Context, todoID int64) error
	Remove(ctx context.Context, entryType string, sourceID int64) error
	// RebuildFull 清空并从当前表数据重建整个索引，返回条目数
	RebuildFull(ctx context.Context) (int64, error)
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
	// Entries 索引中的全部条目
	Entries(ctx context.Context) ([]model.SearchEntry, error)
	// Projection 由当前表数据计算出的期望条目
	Projection(ctx context.Context) ([]model.SearchEntry, error)
}

// searchRepo SearchRepository 的 GORM 实现（原生 SQL）
type searchRepo struct {
	db *gorm.DB
}

// NewSearchRepo 创建 SearchRepository 实例
func NewSearchRepo(db *gorm.DB) SearchRepository {
	return &searchRepo{db: db}
}

func (r *searchRepo) SyncSection(ctx context.Context, sectionID int64) error {
	if err := r.Remove(ctx, model.SearchTypeSection, sectionID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Exec("INSERT INTO search_index ("+indexColumns+") "+sectionProjection+" AND s.id = ?", sectionID).
		Error
}

func (r *searchRepo) SyncTodo(ctx context.Context, todoID int64) error {
	if err := r.Remove(ctx, model.SearchTypeTodo, todoID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Exec("INSERT INTO search_index ("+indexColumns+") "+todoProjection+" WHERE t.id = ?", todoID).
		Error
}

func (r *searchRepo) Remove(ctx context.Context, entryType string, sourceID int64) error {
	return r.db.WithContext(ctx).
		Exec("DELETE FROM search_index WHERE type = ? AND source_id = CAST(? AS TEXT)", entryType, sourceID).
		Error
}

func (r *searchRepo) RebuildFull(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM search_index").Error; err != nil {
		return 0, err
	}
	sections := db.Exec("INSERT INTO search_index (" + indexColumns + ") " + sectionProjection)
	if sections.Error != nil {
		return 0, sections.Error
	}
	todos := db.Exec("INSERT INTO search_index (" + indexColumns + ") " + todoProjection)
	if todos.Error != nil {
		return 0, todos.Error
	}
	return sections.RowsAffected + todos.RowsAffected, nil
}

// Search query 须为已转义的 FTS5 表达式
// 排序：相关度（bm25 越小越相关），同分时会议日期倒序
func (r *searchRepo) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	var results []model.SearchResult
	err := r.db.WithContext(ctx).
		Raw(`SELECT type, source_id, meeting_id, meeting_date, section_name, reporter,
				snippet(search_index, 6, ?, ?, '...', 40) AS snippet, rank
			FROM search_index
			WHERE search_index MATCH ?
			ORDER BY rank, meeting_date DESC, type, CAST(source_id AS INTEGER)
			LIMIT ?`, MarkOpen, MarkClose, query, limit).
		Scan(&results).Error
	return results, err
}

func (r *searchRepo) Entries(ctx context.Context) ([]model.SearchEntry, error) {
	var entries []model.SearchEntry
	err := r.db.WithContext(ctx).
		Raw("SELECT " + indexColumns + " FROM search_index ORDER BY type, CAST(source_id AS INTEGER)").
		Scan(&entries).Error
	return entries, err
}

func (r *searchRepo) Projection(ctx context.Context) ([]model.SearchEntry, error) {
	var entries []model.SearchEntry
	err := r.db.WithContext(ctx).
		Raw("SELECT * FROM (" + sectionProjection + " UNION ALL " + todoProjection + ") " +
			"ORDER BY type, CAST(source_id AS INTEGER)").
		Scan(&entries).Error
	return entries, err
}
