package dto

import "standup-tracker/internal/model"

// ── 检索模块 DTO ──

// SearchRequest 检索请求
type SearchRequest struct {
	Q     string `form:"q"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// SearchGroup 同一场会议的检索结果
type SearchGroup struct {
	MeetingID   string               `json:"meeting_id"`
	MeetingDate string               `json:"meeting_date"`
	Results     []model.SearchResult `json:"results"`
}

// SearchResponse 检索响应：Results 保持相关度顺序，Groups 供页面按会议分组展示
type SearchResponse struct {
	Query   string               `json:"query"`
	Results []model.SearchResult `json:"results"`
	Groups  []SearchGroup        `json:"groups"`
}

// IndexVerifyResponse 索引校验结果
type IndexVerifyResponse struct {
	Consistent bool                `json:"consistent"`
	Missing    []model.SearchEntry `json:"missing"`
	Stale      []model.SearchEntry `json:"stale"`
}

// RebuildIndexResponse 重建结果
type RebuildIndexResponse struct {
	Entries int64 `json:"entries"`
}
