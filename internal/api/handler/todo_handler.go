package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
	"standup-tracker/internal/service"
	"standup-tracker/pkg/response"
)

// TodoHandler 待办 HTTP 处理器
type TodoHandler struct {
	todoSvc service.TodoService
}

// NewTodoHandler 创建 TodoHandler
func NewTodoHandler(todoSvc service.TodoService) *TodoHandler {
	return &TodoHandler{todoSvc: todoSvc}
}

// ListOpen 未完成待办，支持负责人/部门/优先级/逾期过滤
// GET /api/v1/todos
func (h *TodoHandler) ListOpen(c *gin.Context) {
	var req dto.TodoListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.todoSvc.ListOpen(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// ListMine 分配给当前用户的待办
// GET /api/v1/todos/mine?include_done=true
func (h *TodoHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.todoSvc.ListMine(c.Request.Context(), userID, c.Query("include_done") == "true")
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// ListBySection 分区下的待办
// GET /api/v1/sections/:id/todos
func (h *TodoHandler) ListBySection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.todoSvc.ListBySection(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// Create 新建待办
// POST /api/v1/todos
func (h *TodoHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	todo, err := h.todoSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, todo)
}

// Get 待办详情
// GET /api/v1/todos/:id
func (h *TodoHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	todo, err := h.todoSvc.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, todo)
}

// Update 更新待办
// PUT /api/v1/todos/:id
func (h *TodoHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	todo, err := h.todoSvc.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, todo)
}

// Complete 标记完成
// POST /api/v1/todos/:id/complete
func (h *TodoHandler) Complete(c *gin.Context) {
	h.transition(c, h.todoSvc.Complete)
}

// Reopen 重新打开
// POST /api/v1/todos/:id/reopen
func (h *TodoHandler) Reopen(c *gin.Context) {
	h.transition(c, h.todoSvc.Reopen)
}

type todoTransition func(ctx context.Context, id int64, actor service.Actor) (*model.Todo, error)

func (h *TodoHandler) transition(c *gin.Context, fn todoTransition) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	todo, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, todo)
}

// CarryForward 顺延到下一场会议
// POST /api/v1/todos/:id/carry
func (h *TodoHandler) CarryForward(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CarryForwardRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}
	if req.TargetMeetingID != nil && !actor.IsAdmin() {
		response.Forbidden(c, 15003, "只有管理员可以指定顺延目标会议")
		return
	}

	todo, err := h.todoSvc.CarryForward(c.Request.Context(), id, &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, todo)
}

// Delete 删除待办
// DELETE /api/v1/todos/:id
func (h *TodoHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.todoSvc.Delete(c.Request.Context(), id, actor); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
