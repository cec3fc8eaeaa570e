package service

import (
	"context"
	"html"
	"strings"

	"go.uber.org/zap"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/repository"
)

// 检索结果条数
const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

// SearchService 全文检索业务接口
type SearchService interface {
	Search(ctx context.Context, query string, limit int) (*dto.SearchResponse, error)
	// Rebuild 全量重建索引
	Rebuild(ctx context.Context) (int64, error)
	// Verify 比对索引与表数据推导出的期望条目
	Verify(ctx context.Context) (*dto.IndexVerifyResponse, error)
}

type searchService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSearchService 创建 SearchService 实例
func NewSearchService(repo *repository.Repository, logger *zap.Logger) SearchService {
	return &searchService{repo: repo, logger: logger}
}

// ────────────────────── Search ──────────────────────

func (s *searchService) Search(ctx context.Context, query string, limit int) (*dto.SearchResponse, error) {
	query = strings.TrimSpace(query)
	resp := &dto.SearchResponse{Query: query, Results: []model.SearchResult{}, Groups: []dto.SearchGroup{}}
	if query == "" {
		return resp, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, err := s.repo.Search.Search(ctx, phraseQuery(query), limit)
	if err != nil {
		// FTS5 语法错误等按无结果处理
		s.logger.Warn("全文检索失败", zap.String("query", query), zap.Error(err))
		return resp, nil
	}

	for i := range results {
		results[i].Snippet = highlight(results[i].Snippet)
	}
	resp.Results = results
	resp.Groups = groupByMeeting(results)
	return resp, nil
}

// phraseQuery 将用户输入作为单个短语交给 FTS5，避免解析其运算符
func phraseQuery(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}

// highlight 转义片段中的 HTML，再把占位符还原为 <mark> 标签
func highlight(snippet string) string {
	escaped := html.EscapeString(snippet)
	escaped = strings.ReplaceAll(escaped, repository.MarkOpen, "<mark>")
	return strings.ReplaceAll(escaped, repository.MarkClose, "</mark>")
}

// groupByMeeting 按会议分组，组顺序为各会议首个结果出现的顺序
func groupByMeeting(results []model.SearchResult) []dto.SearchGroup {
	groups := []dto.SearchGroup{}
	index := make(map[string]int)
	for _, r := range results {
		i, ok := index[r.MeetingID]
		if !ok {
			i = len(groups)
			index[r.MeetingID] = i
			groups = append(groups, dto.SearchGroup{MeetingID: r.MeetingID, MeetingDate: r.MeetingDate})
		}
		groups[i].Results = append(groups[i].Results, r)
	}
	return groups
}

// ────────────────────── Rebuild / Verify ──────────────────────

func (s *searchService) Rebuild(ctx context.Context) (int64, error) {
	var n int64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		n, err = tx.Search.RebuildFull(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("重建检索索引失败", zap.Error(err))
		return 0, err
	}
	s.logger.Info("检索索引已重建", zap.Int64("entries", n))
	return n, nil
}

func (s *searchService) Verify(ctx context.Context) (*dto.IndexVerifyResponse, error) {
	actual, err := s.repo.Search.Entries(ctx)
	if err != nil {
		s.logger.Error("读取检索索引失败", zap.Error(err))
		return nil, err
	}
	expected, err := s.repo.Search.Projection(ctx)
	if err != nil {
		s.logger.Error("计算期望索引失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.IndexVerifyResponse{
		Missing: diffEntries(expected, actual),
		Stale:   diffEntries(actual, expected),
	}
	resp.Consistent = len(resp.Missing) == 0 && len(resp.Stale) == 0
	return resp, nil
}

// diffEntries 返回 a 中多于 b 的条目（多重集差）
func diffEntries(a, b []model.SearchEntry) []model.SearchEntry {
	count := make(map[model.SearchEntry]int, len(b))
	for _, e := range b {
		count[e]++
	}
	out := []model.SearchEntry{}
	for _, e := range a {
		if count[e] > 0 {
			count[e]--
			continue
		}
		out = append(out, e)
	}
	return out
}

// ── 写入路径上的索引同步 ──

// searchSavepoint 索引写入所用保存点
const searchSavepoint = "search_sync"

// indexer 在调用方事务内同步检索索引
// 索引写入失败时回滚到保存点并记录告警，主数据写入照常提交，索引待重建
type indexer struct {
	logger *zap.Logger
}

func newIndexer(logger *zap.Logger) *indexer {
	return &indexer{logger: logger.Named("search")}
}

func (ix *indexer) syncSection(ctx context.Context, tx *repository.Repository, sectionID int64) {
	ix.guard(tx, model.SearchTypeSection, sectionID, func() error {
		return tx.Search.SyncSection(ctx, sectionID)
	})
}

func (ix *indexer) syncTodo(ctx context.Context, tx *repository.Repository, todoID int64) {
	ix.guard(tx, model.SearchTypeTodo, todoID, func() error {
		return tx.Search.SyncTodo(ctx, todoID)
	})
}

func (ix *indexer) removeTodo(ctx context.Context, tx *repository.Repository, todoID int64) {
	ix.guard(tx, model.SearchTypeTodo, todoID, func() error {
		return tx.Search.Remove(ctx, model.SearchTypeTodo, todoID)
	})
}

func (ix *indexer) guard(tx *repository.Repository, entryType string, id int64, fn func() error) {
	if err := tx.SavePoint(searchSavepoint); err != nil {
		ix.logger.Warn("检索索引可能过期，等待重建",
			zap.String("type", entryType), zap.Int64("source_id", id), zap.Error(err))
		return
	}
	if err := fn(); err != nil {
		if rerr := tx.RollbackTo(searchSavepoint); rerr != nil {
			ix.logger.Error("回滚到保存点失败", zap.Error(rerr))
		}
		ix.logger.Warn("检索索引可能过期，等待重建",
			zap.String("type", entryType), zap.Int64("source_id", id), zap.Error(err))
	}
}
