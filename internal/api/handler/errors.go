package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"standup-tracker/internal/service"
	apperrors "standup-tracker/pkg/errors"
	"standup-tracker/pkg/response"
)

// ── 业务错误码 ──
// 1xxxx 通用，11xxx 认证，12xxx 用户，13xxx 部门/模板，14xxx 会议，15xxx 待办，16xxx 导出

// handleServiceError 将 Service 层错误映射为 HTTP 响应
// 具体错误在前，领域分类在后；无法识别的错误记为 500
func handleServiceError(c *gin.Context, err error) {
	switch {
	// 认证
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "用户名或密码错误")
	case errors.Is(err, service.ErrUserInactive):
		response.Forbidden(c, 11002, "账号已停用")
	case errors.Is(err, service.ErrWrongPassword):
		response.BadRequest(c, 11003, "原密码错误")

	// 用户
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, 12001, "用户名已存在")
	case errors.Is(err, service.ErrUserSelfDisable):
		response.BadRequest(c, 12002, "不能停用自己或修改自己的角色")

	// 部门 / 模板
	case errors.Is(err, service.ErrDepartmentNameExists):
		response.Conflict(c, 13001, "部门名称已存在")
	case errors.Is(err, service.ErrTemplateNameExists):
		response.Conflict(c, 13002, "模板名称已存在")

	// 会议
	case errors.Is(err, apperrors.ErrDuplicateDate):
		response.Conflict(c, 14001, "该日期的会议已存在")
	case errors.Is(err, apperrors.ErrMeetingLocked):
		response.Locked(c, 14002, "会议已锁定")
	case errors.Is(err, service.ErrSectionForbidden):
		response.Forbidden(c, 14003, "无权编辑该分区")

	// 待办
	case errors.Is(err, apperrors.ErrNoTargetSection):
		response.UnprocessableEntity(c, 15001, "没有可顺延的目标分区")
	case errors.Is(err, service.ErrSpecialSection):
		response.UnprocessableEntity(c, 15002, "特殊分区不能添加待办")
	case errors.Is(err, service.ErrCarryOverrideForbidden):
		response.Forbidden(c, 15003, "只有管理员可以指定顺延目标会议")

	// 导出
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)

	// 领域分类
	case errors.Is(err, apperrors.ErrNotFound):
		response.NotFound(c, 10006, err.Error())
	case errors.Is(err, apperrors.ErrConstraintViolation):
		response.Conflict(c, 10007, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		response.BadRequest(c, 10001, err.Error())

	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
