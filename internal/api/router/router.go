package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"standup-tracker/config"
	"standup-tracker/internal/api/handler"
	"standup-tracker/internal/api/middleware"
	"standup-tracker/internal/model"
	"standup-tracker/pkg/jwt"
	"standup-tracker/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 无需认证
		v1.POST("/auth/login",
			middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginWindow, logger),
			h.Auth.Login)
		v1.GET("/feed/:token", h.Export.CalendarFeed)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// 认证
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户
			users := authorized.Group("/users")
			{
				users.GET("", h.User.List)
				users.GET("/me/feed", h.User.FeedURL)
				users.POST("/me/feed", h.User.RegenerateFeedToken)
				users.GET("/:id", h.User.Get)
				users.POST("", adminOnly, h.User.Create)
				users.POST("/import", adminOnly, h.User.Import)
				users.PUT("/:id", adminOnly, h.User.Update)
				users.POST("/:id/reset-password", adminOnly, h.User.ResetPassword)
			}

			// 部门
			departments := authorized.Group("/departments")
			{
				departments.GET("", h.Department.List)
				departments.GET("/:id", h.Department.Get)
				departments.GET("/:id/reporters", h.Department.ListReporters)
				departments.POST("", adminOnly, h.Department.Create)
				departments.PUT("/order", adminOnly, h.Department.Reorder)
				departments.PUT("/:id", adminOnly, h.Department.Update)
				departments.POST("/:id/archive", adminOnly, h.Department.Archive)
				departments.POST("/:id/unarchive", adminOnly, h.Department.Unarchive)
				departments.PUT("/:id/reporters", adminOnly, h.Department.SetReporters)
			}

			// 模板
			templates := authorized.Group("/templates")
			{
				templates.GET("", h.Template.List)
				templates.GET("/:id", h.Template.Get)
				templates.POST("", adminOnly, h.Template.Create)
				templates.PUT("/:id", adminOnly, h.Template.Update)
				templates.DELETE("/:id", adminOnly, h.Template.Delete)
			}

			// 会议
			meetings := authorized.Group("/meetings")
			{
				meetings.GET("", h.Meeting.List)
				meetings.POST("", h.Meeting.Create)
				meetings.GET("/latest", h.Meeting.Latest)
				meetings.GET("/date/:date", h.Meeting.GetByDate)
				meetings.GET("/:id", h.Meeting.View)
				meetings.GET("/:id/fill", h.Meeting.FillStatus)
				meetings.POST("/:id/lock", adminOnly, h.Meeting.Lock)
				meetings.POST("/:id/unlock", adminOnly, h.Meeting.Unlock)
				meetings.POST("/:id/save-template", adminOnly, h.Template.SaveFromMeeting)

				meetings.GET("/:id/attendance", h.Meeting.ListAttendance)
				meetings.PUT("/:id/attendance", h.Meeting.SetAttendance)
				meetings.DELETE("/:id/attendance/:user_id", h.Meeting.RemoveAttendance)

				meetings.GET("/:id/export/markdown", h.Export.Markdown)
				meetings.GET("/:id/export/xlsx", h.Export.Excel)
			}

			// 分区
			sections := authorized.Group("/sections")
			{
				sections.GET("/:id", h.Meeting.GetSection)
				sections.PUT("/:id", h.Meeting.EditSection)
				sections.GET("/:id/todos", h.Todo.ListBySection)
			}

			// 待办
			todos := authorized.Group("/todos")
			{
				todos.GET("", h.Todo.ListOpen)
				todos.GET("/mine", h.Todo.ListMine)
				todos.POST("", h.Todo.Create)
				todos.GET("/:id", h.Todo.Get)
				todos.PUT("/:id", h.Todo.Update)
				todos.DELETE("/:id", h.Todo.Delete)
				todos.POST("/:id/complete", h.Todo.Complete)
				todos.POST("/:id/reopen", h.Todo.Reopen)
				todos.POST("/:id/carry", h.Todo.CarryForward)
			}

			// 检索
			search := authorized.Group("/search")
			{
				search.GET("", h.Search.Search)
				search.POST("/rebuild", adminOnly, h.Search.Rebuild)
				search.GET("/verify", adminOnly, h.Search.Verify)
			}

			// 设置
			settings := authorized.Group("/settings")
			{
				settings.GET("", h.Setting.All)
				settings.PUT("/:key", adminOnly, h.Setting.Set)
			}

			// 统计
			analytics := authorized.Group("/analytics")
			{
				analytics.GET("", h.Analytics.Dashboard)
				analytics.GET("/kpis", h.Analytics.KPIs)
				analytics.GET("/fill-rate", h.Analytics.FillRate)
				analytics.GET("/velocity", h.Analytics.Velocity)
				analytics.GET("/heatmap", h.Analytics.Heatmap)
				analytics.GET("/assignees", h.Analytics.ByAssignee)
				analytics.GET("/stale", h.Analytics.Stale)
				analytics.GET("/activity", h.Analytics.Activity)
			}
		}
	}

	return r
}
