package service

import (
	"context"
	"errors"
	"testing"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	apperrors "standup-tracker/pkg/errors"
)

// ── Create 测试 ──

func TestMeetingService_Create_BlankUsesPrimaryReporter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice", "Alice", model.RoleMember)
	eng := env.department(t, "Engineering", false)
	if _, err := env.svc.Department.SetReporters(ctx, eng.ID, &dto.SetReportersRequest{
		Reporters: []dto.ReporterEntry{{UserID: alice.ID, IsPrimary: true}},
	}); err != nil {
		t.Fatalf("设置汇报人失败: %v", err)
	}

	m := env.meeting(t, "2024-01-08")
	secs := env.sections(t, m.ID)
	if len(secs) != 1 {
		t.Fatalf("期望 1 个分区，实际 %d", len(secs))
	}
	sec := secs[0]
	if sec.Name != "Engineering" {
		t.Errorf("分区名称应为 Engineering，实际 %s", sec.Name)
	}
	if sec.ReporterID == nil || *sec.ReporterID != alice.ID {
		t.Errorf("reporter_id 应为 %d，实际 %v", alice.ID, sec.ReporterID)
	}
	if sec.Reporter != "Alice" {
		t.Errorf("汇报人名称应为 Alice，实际 %s", sec.Reporter)
	}
	if sec.Content != "" {
		t.Errorf("新分区内容应为空，实际 %q", sec.Content)
	}
	if m.Status != model.MeetingOpen {
		t.Errorf("新会议应为 open，实际 %s", m.Status)
	}
}

func TestMeetingService_Create_DuplicateDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.department(t, "Engineering", false)

	env.meeting(t, "2024-01-08")
	_, err := env.svc.Meeting.Create(ctx, &dto.CreateMeetingRequest{Date: "2024-01-08"}, SystemActor)
	if !errors.Is(err, apperrors.ErrDuplicateDate) {
		t.Fatalf("期望 ErrDuplicateDate，实际: %v", err)
	}

	_, total, err := env.svc.Meeting.List(ctx, &dto.MeetingListRequest{})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 {
		t.Errorf("重复创建后会议数应仍为 1，实际 %d", total)
	}
}

func TestMeetingService_Create_InvalidArguments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Meeting.Create(ctx, &dto.CreateMeetingRequest{Date: "2024/01/08"}, SystemActor); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("非法日期应返回 ErrInvalidArgument，实际: %v", err)
	}

	req := &dto.CreateMeetingRequest{Date: "2024-01-08", TemplateID: int64Ptr(1), CopyFromID: int64Ptr(1)}
	if _, err := env.svc.Meeting.Create(ctx, req, SystemActor); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("同时指定模板与复制来源应返回 ErrInvalidArgument，实际: %v", err)
	}

	req = &dto.CreateMeetingRequest{Date: "2024-01-08", CopyFromID: int64Ptr(999)}
	if _, err := env.svc.Meeting.Create(ctx, req, SystemActor); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("复制不存在的会议应返回 ErrNotFound，实际: %v", err)
	}
	if _, err := env.svc.Meeting.GetByDate(ctx, "2024-01-08"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("失败的创建不应留下会议，实际: %v", err)
	}
}

func TestMeetingService_Create_FallbackSectionsWithoutDepartments(t *testing.T) {
	env := newTestEnv(t)

	m := env.meeting(t, "2024-01-08")
	secs := env.sections(t, m.ID)
	if len(secs) != len(defaultSections) {
		t.Fatalf("期望 %d 个内置分区，实际 %d", len(defaultSections), len(secs))
	}
	for i, sec := range secs {
		if sec.Name != defaultSections[i].name || sec.IsSpecial != defaultSections[i].isSpecial {
			t.Errorf("第 %d 个分区应为 %s(special=%v)，实际 %s(special=%v)",
				i, defaultSections[i].name, defaultSections[i].isSpecial, sec.Name, sec.IsSpecial)
		}
		if sec.DepartmentID != nil {
			t.Errorf("内置分区不应关联部门: %s", sec.Name)
		}
	}
}

func TestMeetingService_Create_IncludesSpecialSkipsArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.department(t, "Engineering", false)
	old := env.department(t, "Legacy", false)
	env.department(t, "Shoutouts", true)
	if err := env.svc.Department.Archive(ctx, old.ID); err != nil {
		t.Fatalf("归档失败: %v", err)
	}

	m := env.meeting(t, "2024-01-08")
	secs := env.sections(t, m.ID)
	if len(secs) != 2 {
		t.Fatalf("期望 2 个分区（归档部门被跳过），实际 %d", len(secs))
	}
	if secs[0].Name != "Engineering" || secs[1].Name != "Shoutouts" || !secs[1].IsSpecial {
		t.Errorf("分区顺序或特殊标记错误: %+v", secs)
	}
}

func TestMeetingService_Create_FromTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eng := env.department(t, "Engineering", false)
	design := env.department(t, "Design", false)
	qa := env.department(t, "QA", false)

	tpl, err := env.svc.Template.Create(ctx, &dto.CreateTemplateRequest{
		Name: "Sprint review",
		Sections: []dto.TemplateSectionInput{
			{DepartmentID: qa.ID, DefaultContent: "- release checklist"},
			{DepartmentID: eng.ID},
			{DepartmentID: design.ID},
		},
	}, SystemActor)
	if err != nil {
		t.Fatalf("创建模板失败: %v", err)
	}
	if err := env.svc.Department.Archive(ctx, design.ID); err != nil {
		t.Fatalf("归档失败: %v", err)
	}

	m, err := env.svc.Meeting.Create(ctx, &dto.CreateMeetingRequest{Date: "2024-02-01", TemplateID: &tpl.ID}, SystemActor)
	if err != nil {
		t.Fatalf("按模板创建会议失败: %v", err)
	}
	if m.TemplateID == nil || *m.TemplateID != tpl.ID {
		t.Errorf("会议应记录 template_id")
	}

	secs := env.sections(t, m.ID)
	if len(secs) != 2 {
		t.Fatalf("期望 2 个分区（归档部门跳过），实际 %d", len(secs))
	}
	if secs[0].Name != "QA" || secs[0].Content != "- release checklist" {
		t.Errorf("第一个分区应为预填的 QA，实际 %s %q", secs[0].Name, secs[0].Content)
	}
	if secs[1].Name != "Engineering" || secs[1].Content != "" {
		t.Errorf("第二个分区应为空的 Engineering，实际 %s %q", secs[1].Name, secs[1].Content)
	}

	// 预填内容在创建时即进入索引
	resp, err := env.svc.Search.Search(ctx, "checklist", 0)
	if err != nil {
		t.Fatalf("检索失败: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Type != model.SearchTypeSection {
		t.Errorf("预填内容应可检索，实际 %+v", resp.Results)
	}
}

func TestMeetingService_Create_CopyFrom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.department(t, "Engineering", false)
	env.department(t, "Design", false)
	src := env.meeting(t, "2024-01-08")
	eng := env.sectionNamed(t, src.ID, "Engineering")
	if _, err := env.svc.Meeting.EditSection(ctx, eng.ID, "shipped auth", SystemActor); err != nil {
		t.Fatalf("编辑分区失败: %v", err)
	}
	// 部门后续变化不影响复制结果
	env.department(t, "Marketing", false)

	copied, err := env.svc.Meeting.Create(ctx, &dto.CreateMeetingRequest{Date: "2024-01-15", CopyFromID: &src.ID}, SystemActor)
	if err != nil {
		t.Fatalf("复制会议失败: %v", err)
	}
	secs := env.sections(t, copied.ID)
	if len(secs) != 2 {
		t.Fatalf("复制应得到 2 个分区，实际 %d", len(secs))
	}
	for _, sec := range secs {
		if sec.Content != "" {
			t.Errorf("默认不复制内容，分区 %s 内容为 %q", sec.Name, sec.Content)
		}
	}
	if secs[0].DepartmentID == nil || *secs[0].DepartmentID != *eng.DepartmentID {
		t.Errorf("复制应保留部门关联")
	}

	carried, err := env.svc.Meeting.Create(ctx, &dto.CreateMeetingRequest{
		Date: "2024-01-22", CopyFromID: &src.ID, CarryContent: true,
	}, SystemActor)
	if err != nil {
		t.Fatalf("复制会议（带内容）失败: %v", err)
	}
	if got := env.sectionNamed(t, carried.ID, "Engineering").Content; got != "shipped auth" {
		t.Errorf("CarryContent 应复制内容，实际 %q", got)
	}
}

// ── Lock 测试 ──

func TestMeetingService_LockRejectsMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.user(t, "root", "Root", model.RoleAdmin)
	bob := env.user(t, "bob", "Bob", model.RoleMember)
	env.department(t, "Engineering", false)
	m := env.meeting(t, "2024-01-08")
	sec := env.sectionNamed(t, m.ID, "Engineering")
	td := env.todo(t, sec.ID, "write docs", "", nil)

	locked, err := env.svc.Meeting.Lock(ctx, m.ID, adminActor(admin))
	if err != nil {
		t.Fatalf("Lock 失败: %v", err)
	}
	if !locked.IsLocked() || locked.LockedBy == nil || *locked.LockedBy != admin.ID || locked.LockedAt == nil {
		t.Fatalf("锁定应记录操作者与时间: %+v", locked)
	}
	// 幂等
	if _, err := env.svc.Meeting.Lock(ctx, m.ID, adminActor(admin)); err != nil {
		t.Fatalf("重复 Lock 应成功: %v", err)
	}

	if _, err := env.svc.Meeting.EditSection(ctx, sec.ID, "late update", SystemActor); !errors.Is(err, apperrors.ErrMeetingLocked) {
		t.Errorf("锁定后编辑分区应返回 ErrMeetingLocked，实际: %v", err)
	}
	if _, err := env.svc.Todo.Create(ctx, &dto.CreateTodoRequest{SectionID: sec.ID, Text: "x"}, SystemActor); !errors.Is(err, apperrors.ErrMeetingLocked) {
		t.Errorf("锁定后新建待办应返回 ErrMeetingLocked，实际: %v", err)
	}
	if _, err := env.svc.Todo.Complete(ctx, td.ID, SystemActor); !errors.Is(err, apperrors.ErrMeetingLocked) {
		t.Errorf("锁定后完成待办应返回 ErrMeetingLocked，实际: %v", err)
	}
	if err := env.svc.Todo.Delete(ctx, td.ID, SystemActor); !errors.Is(err, apperrors.ErrMeetingLocked) {
		t.Errorf("锁定后删除待办应返回 ErrMeetingLocked，实际: %v", err)
	}
	att := &dto.SetAttendanceRequest{UserID: bob.ID, Status: model.AttendanceRemote}
	if err := env.svc.Meeting.SetAttendance(ctx, m.ID, att); !errors.Is(err, apperrors.ErrMeetingLocked) {
		t.Errorf("锁定后设置出勤应返回 ErrMeetingLocked，实际: %v", err)
	}

	unlocked, err := env.svc.Meeting.Unlock(ctx, m.ID, adminActor(admin))
	if err != nil {
		t.Fatalf("Unlock 失败: %v", err)
	}
	if unlocked.IsLocked() || unlocked.LockedBy != nil || unlocked.LockedAt != nil {
		t.Errorf("解锁应清空 locked_by/locked_at: %+v", unlocked)
	}

	if _, err := env.svc.Meeting.EditSection(ctx, sec.ID, "late update", SystemActor); err != nil {
		t.Errorf("解锁后编辑分区应成功: %v", err)
	}
	if _, err := env.svc.Todo.Complete(ctx, td.ID, SystemActor); err != nil {
		t.Errorf("解锁后完成待办应成功: %v", err)
	}
	if err := env.svc.Meeting.SetAttendance(ctx, m.ID, att); err != nil {
		t.Errorf("解锁后设置出勤应成功: %v", err)
	}
}

// ── EditSection / CanEditSection 测试 ──

func TestMeetingService_EditSection_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice", "Alice", model.RoleMember)
	carol := env.user(t, "carol", "Carol", model.RoleMember)
	mallory := env.user(t, "mallory", "Mallory", model.RoleMember)
	eng := env.department(t, "Engineering", false)
	if _, err := env.svc.Department.SetReporters(ctx, eng.ID, &dto.SetReportersRequest{
		Reporters: []dto.ReporterEntry{{UserID: alice.ID, IsPrimary: true}, {UserID: carol.ID}},
	}); err != nil {
		t.Fatalf("设置汇报人失败: %v", err)
	}
	m := env.meeting(t, "2024-01-08")
	sec := env.sectionNamed(t, m.ID, "Engineering")

	cases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"主汇报人", memberActor(alice), true},
		{"部门汇报人", memberActor(carol), true},
		{"无关成员", memberActor(mallory), false},
		{"管理员", Actor{UserID: mallory.ID, Role: model.RoleAdmin}, true},
	}
	for _, c := range cases {
		ok, err := env.svc.Meeting.CanEditSection(ctx, c.actor, sec)
		if err != nil {
			t.Fatalf("%s: CanEditSection 失败: %v", c.name, err)
		}
		if ok != c.want {
			t.Errorf("%s: 期望 %v，实际 %v", c.name, c.want, ok)
		}
	}

	if _, err := env.svc.Meeting.EditSection(ctx, sec.ID, "hack", memberActor(mallory)); !errors.Is(err, ErrSectionForbidden) {
		t.Errorf("无权用户编辑应返回 ErrSectionForbidden，实际: %v", err)
	}

	updated, err := env.svc.Meeting.EditSection(ctx, sec.ID, "did things", memberActor(carol))
	if err != nil {
		t.Fatalf("部门汇报人编辑失败: %v", err)
	}
	if updated.Content != "did things" || updated.UpdatedAt == nil || updated.UpdatedBy == nil || *updated.UpdatedBy != carol.ID {
		t.Errorf("编辑应更新内容与审计字段: %+v", updated)
	}

	if _, err := env.svc.Meeting.Lock(ctx, m.ID, SystemActor); err != nil {
		t.Fatalf("Lock 失败: %v", err)
	}
	ok, _ := env.svc.Meeting.CanEditSection(ctx, Actor{UserID: alice.ID, Role: model.RoleAdmin}, sec)
	if ok {
		t.Error("锁定会议的分区对管理员也不可编辑")
	}
}

func TestMeetingService_FillStatusAndView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.department(t, "Engineering", false)
	env.department(t, "Design", false)
	m := env.meeting(t, "2024-01-08")
	eng := env.sectionNamed(t, m.ID, "Engineering")
	if _, err := env.svc.Meeting.EditSection(ctx, eng.ID, "done", SystemActor); err != nil {
		t.Fatalf("编辑分区失败: %v", err)
	}
	env.todo(t, eng.ID, "follow up", model.PriorityHigh, nil)

	fill, err := env.svc.Meeting.FillStatus(ctx, m.ID)
	if err != nil {
		t.Fatalf("FillStatus 失败: %v", err)
	}
	if fill.Filled != 1 || fill.Total != 2 {
		t.Errorf("期望 1/2，实际 %d/%d", fill.Filled, fill.Total)
	}

	view, err := env.svc.Meeting.View(ctx, m.ID, SystemActor)
	if err != nil {
		t.Fatalf("View 失败: %v", err)
	}
	if len(view.Sections) != 2 || !view.Sections[0].CanEdit || len(view.Sections[0].Todos) != 1 {
		t.Errorf("视图内容错误: %+v", view.Sections)
	}
	if view.Fill.Filled != 1 || view.Fill.Total != 2 {
		t.Errorf("视图填写进度错误: %+v", view.Fill)
	}

	items, total, err := env.svc.Meeting.List(ctx, &dto.MeetingListRequest{})
	if err != nil || total != 1 {
		t.Fatalf("List 失败: total=%d err=%v", total, err)
	}
	if items[0].FilledSections != 1 || items[0].TotalSections != 2 || items[0].OpenTodos != 1 {
		t.Errorf("会议摘要错误: %+v", items[0])
	}
}

// ── Attendance 测试 ──

func TestMeetingService_AttendanceUpsert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	zoe := env.user(t, "zoe", "Zoe", model.RoleMember)
	adam := env.user(t, "adam", "Adam", model.RoleMember)
	m := env.meeting(t, "2024-01-08")

	for _, st := range []string{model.AttendancePresent, model.AttendanceRemote} {
		if err := env.svc.Meeting.SetAttendance(ctx, m.ID, &dto.SetAttendanceRequest{UserID: zoe.ID, Status: st}); err != nil {
			t.Fatalf("SetAttendance 失败: %v", err)
		}
	}
	if err := env.svc.Meeting.SetAttendance(ctx, m.ID, &dto.SetAttendanceRequest{UserID: adam.ID}); err != nil {
		t.Fatalf("SetAttendance 失败: %v", err)
	}

	list, err := env.svc.Meeting.ListAttendance(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListAttendance 失败: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("同一用户重复设置应只保留一条，实际 %d 条", len(list))
	}
	// 按显示名排序
	if list[0].UserID != adam.ID || list[0].Status != model.AttendancePresent {
		t.Errorf("第一条应为 Adam/present，实际 %+v", list[0])
	}
	if list[1].UserID != zoe.ID || list[1].Status != model.AttendanceRemote {
		t.Errorf("第二条应为 Zoe/remote，实际 %+v", list[1])
	}

	if err := env.svc.Meeting.SetAttendance(ctx, m.ID, &dto.SetAttendanceRequest{UserID: zoe.ID, Status: "sleeping"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("非法出勤状态应返回 ErrInvalidArgument，实际: %v", err)
	}

	if err := env.svc.Meeting.RemoveAttendance(ctx, m.ID, zoe.ID); err != nil {
		t.Fatalf("RemoveAttendance 失败: %v", err)
	}
	list, _ = env.svc.Meeting.ListAttendance(ctx, m.ID)
	if len(list) != 1 {
		t.Errorf("移除后应剩 1 条，实际 %d", len(list))
	}
}
