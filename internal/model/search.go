package model

// 检索条目类型
const (
	SearchTypeSection = "section"
	SearchTypeTodo    = "todo"
)

// SearchEntry 检索索引条目 — 对应 FTS5 虚表 search_index
// 派生数据，不是权威来源
type SearchEntry struct {
	Type        string `json:"type"`
	SourceID    string `json:"source_id"`
	MeetingID   string `json:"meeting_id"`
	MeetingDate string `json:"meeting_date"`
	SectionName string `json:"section_name"`
	Reporter    string `json:"reporter"`
	Content     string `json:"content"`
}

// SearchResult 检索结果
type SearchResult struct {
	Type        string  `json:"type"`
	SourceID    string  `json:"source_id"`
	MeetingID   string  `json:"meeting_id"`
	MeetingDate string  `json:"meeting_date"`
	SectionName string  `json:"section_name"`
	Reporter    string  `json:"reporter"`
	Snippet     string  `json:"snippet"`
	Rank        float64 `json:"rank"`
}
