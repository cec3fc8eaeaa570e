package handler

import "standup-tracker/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Department *DepartmentHandler
	Template   *TemplateHandler
	Meeting    *MeetingHandler
	Todo       *TodoHandler
	Search     *SearchHandler
	Setting    *SettingHandler
	Analytics  *AnalyticsHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, svc.User),
		User:       NewUserHandler(svc.User),
		Department: NewDepartmentHandler(svc.Department),
		Template:   NewTemplateHandler(svc.Template),
		Meeting:    NewMeetingHandler(svc.Meeting),
		Todo:       NewTodoHandler(svc.Todo),
		Search:     NewSearchHandler(svc.Search),
		Setting:    NewSettingHandler(svc.Setting),
		Analytics:  NewAnalyticsHandler(svc.Analytics),
		Export:     NewExportHandler(svc.Export),
	}
}
