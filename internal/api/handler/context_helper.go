package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"standup-tracker/internal/api/middleware"
	"standup-tracker/internal/service"
	"standup-tracker/pkg/response"
)

// MustGetUserID 从 Gin 上下文中提取 user_id。
// JWT 中间件未注入时写入 401 响应并返回 false，调用方应直接 return。
func MustGetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetActor 当前请求的操作者
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: id, Role: c.GetString(middleware.CtxRole)}, true
}

// tokenInfo 当前 Token 的 jti 与剩余有效期，供登出写黑名单
func tokenInfo(c *gin.Context) (string, time.Duration) {
	ttl, _ := c.Get(middleware.CtxTokenExp)
	d, _ := ttl.(time.Duration)
	return c.GetString(middleware.CtxTokenJTI), d
}

// parseIDParam 解析路径参数中的正整数 ID；失败时写入 400
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, "ID 格式无效")
		return 0, false
	}
	return id, true
}

// bindFailed 参数绑定失败：请求体超限返回 413，其余返回 400
func bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
