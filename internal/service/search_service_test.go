package service

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
)

// seedSearchData 两场会议，含分区内容与待办
func seedSearchData(t *testing.T, env *testEnv) (*model.Meeting, *model.Section) {
	t.Helper()
	ctx := context.Background()

	env.department(t, "Engineering", false)
	env.department(t, "Design", false)
	m1 := env.meeting(t, "2024-01-08")
	m2 := env.meeting(t, "2024-01-15")

	eng := env.sectionNamed(t, m1.ID, "Engineering")
	if _, err := env.svc.Meeting.EditSection(ctx, eng.ID, "We shipped the release", SystemActor); err != nil {
		t.Fatalf("编辑分区失败: %v", err)
	}
	des := env.sectionNamed(t, m2.ID, "Design")
	if _, err := env.svc.Meeting.EditSection(ctx, des.ID, "new <b>mockups</b> ready", SystemActor); err != nil {
		t.Fatalf("编辑分区失败: %v", err)
	}
	env.todo(t, eng.ID, "write release notes", model.PriorityHigh, nil)
	env.todo(t, des.ID, "review mockups", "", nil)
	return m1, eng
}

func TestSearchService_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m1, eng := seedSearchData(t, env)

	resp, err := env.svc.Search.Search(ctx, "shipped", 0)
	if err != nil {
		t.Fatalf("Search 失败: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("期望 1 条结果，实际 %d", len(resp.Results))
	}
	r := resp.Results[0]
	if r.Type != model.SearchTypeSection || r.SourceID != strconv.FormatInt(eng.ID, 10) {
		t.Errorf("结果应指向 Engineering 分区: %+v", r)
	}
	if r.MeetingDate != "2024-01-08" || r.MeetingID != strconv.FormatInt(m1.ID, 10) {
		t.Errorf("结果会议信息错误: %+v", r)
	}
	if !strings.Contains(r.Snippet, "<mark>shipped</mark>") {
		t.Errorf("片段应高亮命中词，实际 %q", r.Snippet)
	}
	if len(resp.Groups) != 1 || len(resp.Groups[0].Results) != 1 {
		t.Errorf("分组结果错误: %+v", resp.Groups)
	}

	// 分区与待办都命中
	resp, _ = env.svc.Search.Search(ctx, "release", 0)
	if len(resp.Results) != 2 {
		t.Errorf("release 应命中分区与待办，实际 %d 条", len(resp.Results))
	}
}

func TestSearchService_SearchEscapesHTML(t *testing.T) {
	env := newTestEnv(t)
	seedSearchData(t, env)

	resp, err := env.svc.Search.Search(context.Background(), "ready", 0)
	if err != nil {
		t.Fatalf("Search 失败: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("期望 1 条结果，实际 %d", len(resp.Results))
	}
	snippet := resp.Results[0].Snippet
	if strings.Contains(snippet, "<b>") {
		t.Errorf("片段中的原始 HTML 应被转义: %q", snippet)
	}
	if !strings.Contains(snippet, "&lt;b&gt;") || !strings.Contains(snippet, "<mark>ready</mark>") {
		t.Errorf("片段转义或高亮错误: %q", snippet)
	}
}

func TestSearchService_BlankAndOperatorQueries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedSearchData(t, env)

	for _, q := range []string{"", "   "} {
		resp, err := env.svc.Search.Search(ctx, q, 0)
		if err != nil {
			t.Fatalf("空查询不应报错: %v", err)
		}
		if len(resp.Results) != 0 || len(resp.Groups) != 0 {
			t.Errorf("空查询应返回空结果，实际 %d 条", len(resp.Results))
		}
	}

	// FTS5 运算符按普通文本处理
	for _, q := range []string{`"unbalanced`, "AND OR NOT", "shipped*("} {
		if _, err := env.svc.Search.Search(ctx, q, 0); err != nil {
			t.Errorf("查询 %q 不应报错: %v", q, err)
		}
	}
}

func TestSearchService_RebuildMatchesIncremental(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, eng := seedSearchData(t, env)

	// 覆盖更新、删除、顺延等写入路径
	td := env.todo(t, eng.ID, "temporary", "", nil)
	if err := env.svc.Todo.Delete(ctx, td.ID, SystemActor); err != nil {
		t.Fatalf("删除待办失败: %v", err)
	}
	if _, err := env.svc.Meeting.EditSection(ctx, eng.ID, "We shipped the second release", SystemActor); err != nil {
		t.Fatalf("编辑分区失败: %v", err)
	}
	carry := env.todo(t, eng.ID, "follow up", "", nil)
	if _, err := env.svc.Todo.CarryForward(ctx, carry.ID, &dto.CarryForwardRequest{}, SystemActor); err != nil {
		t.Fatalf("顺延失败: %v", err)
	}

	incremental, err := env.repo.Search.Entries(ctx)
	if err != nil {
		t.Fatalf("读取索引失败: %v", err)
	}

	n, err := env.svc.Search.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild 失败: %v", err)
	}
	rebuilt, err := env.repo.Search.Entries(ctx)
	if err != nil {
		t.Fatalf("读取索引失败: %v", err)
	}

	if int64(len(rebuilt)) != n {
		t.Errorf("Rebuild 返回 %d，实际条目 %d", n, len(rebuilt))
	}
	if missing, extra := diffEntries(rebuilt, incremental), diffEntries(incremental, rebuilt); len(missing) != 0 || len(extra) != 0 {
		t.Errorf("增量索引与重建结果不一致: missing=%+v extra=%+v", missing, extra)
	}

	verify, err := env.svc.Search.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify 失败: %v", err)
	}
	if !verify.Consistent {
		t.Errorf("重建后索引应一致: %+v", verify)
	}
}

func TestSearchService_VerifyDetectsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, eng := seedSearchData(t, env)

	if err := env.repo.Search.Remove(ctx, model.SearchTypeSection, eng.ID); err != nil {
		t.Fatalf("移除索引条目失败: %v", err)
	}

	verify, err := env.svc.Search.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify 失败: %v", err)
	}
	if verify.Consistent || len(verify.Missing) != 1 || len(verify.Stale) != 0 {
		t.Fatalf("应检测到 1 条缺失条目: %+v", verify)
	}
	if verify.Missing[0].SourceID != strconv.FormatInt(eng.ID, 10) {
		t.Errorf("缺失条目错误: %+v", verify.Missing[0])
	}

	if _, err := env.svc.Search.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild 失败: %v", err)
	}
	if verify, _ := env.svc.Search.Verify(ctx); !verify.Consistent {
		t.Errorf("重建后索引应一致: %+v", verify)
	}
}

func TestDiffEntries_Multiset(t *testing.T) {
	a := model.SearchEntry{Type: "todo", SourceID: "1", Content: "x"}
	b := model.SearchEntry{Type: "todo", SourceID: "2", Content: "y"}

	got := diffEntries([]model.SearchEntry{a, a, b}, []model.SearchEntry{a, b})
	if len(got) != 1 || got[0] != a {
		t.Errorf("多重集差错误: %+v", got)
	}
	if got := diffEntries([]model.SearchEntry{a}, []model.SearchEntry{a, b}); len(got) != 0 {
		t.Errorf("a ⊆ b 时差集应为空: %+v", got)
	}
}
