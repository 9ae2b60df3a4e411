package dto

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"linkgate/pkg/utils"
)

func init() {
	// 注册自定义 expiry 校验器（30m/2h/7d 或未来的 RFC3339 时间）
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
			_, err := utils.ParseExpiry(fl.Field().String(), time.Now())
			return err == nil
		})
	}
}

// ButtonPayload bio 页按钮参数
type ButtonPayload struct {
	Label string `json:"label" binding:"required,max=64"`
	URL   string `json:"url" binding:"required,url"`
}

// CreateLinkRequest 用于创建短链的请求参数
type CreateLinkRequest struct {
	TargetURL string `json:"targetUrl" binding:"required,url"` // Gin 内置 URL 校验
	OwnerID   string `json:"ownerId" binding:"required,max=64"`
	ExpiresIn string `json:"expiresIn" binding:"omitempty,max=32,expiry"` // 30m/2h/7d 或 RFC3339
	MaxClicks int64  `json:"maxClicks" binding:"omitempty,min=1"`
	// Force 为 true 表示用户确认发布 suspicious 判定的链接；dangerous 不可覆盖
	Force bool `json:"force"`
}

// Validate 自定义验证逻辑
func (r *CreateLinkRequest) Validate() error {
	if err := utils.ValidateTargetURL(r.TargetURL); err != nil {
		return gin.Error{
			Err:  err,
			Type: gin.ErrorTypeBind,
		}
	}
	return nil
}

// CreatePageRequest 用于创建 bio 页的请求参数
type CreatePageRequest struct {
	OwnerID     string          `json:"ownerId" binding:"required,max=64"`
	Title       string          `json:"title" binding:"required,max=128"`
	Description string          `json:"description" binding:"omitempty,max=512"`
	Theme       string          `json:"theme" binding:"omitempty,oneof=light dark"`
	Buttons     []ButtonPayload `json:"buttons" binding:"omitempty,dive"`
}

// UpdateLinkRequest 用于修改实体字段的请求参数；nil 字段不修改
type UpdateLinkRequest struct {
	OwnerID           string         `json:"ownerId" binding:"required,max=64"`
	TargetURL         *string        `json:"targetUrl" binding:"omitempty,url"`
	Title             *string        `json:"title" binding:"omitempty,max=128"`
	Description       *string        `json:"description" binding:"omitempty,max=512"`
	Theme             *string        `json:"theme" binding:"omitempty,oneof=light dark"`
	AddButton         *ButtonPayload `json:"addButton"`
	RemoveButtonIndex *int           `json:"removeButtonIndex"`
}

// LinkResponse 创建/查询返回
type LinkResponse struct {
	Code     string `json:"code"`
	ShortURL string `json:"shortUrl"`
	Type     string `json:"type"`
}
