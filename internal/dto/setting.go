package dto

// SetSettingRequest 更新配置请求
type SetSettingRequest struct {
	Value string `json:"value" binding:"max=1000"`
}
