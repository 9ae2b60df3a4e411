package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"linkgate/internal/apperrors"
	"linkgate/internal/dto"
	"linkgate/internal/service"
	"linkgate/pkg/utils"
	"linkgate/response"
)

// ExtraHandler 链接预览、QR 生成与用户偏好
type ExtraHandler struct {
	metadata *service.MetadataService
	qr       *service.QRService
	state    *service.StateService
}

func NewExtraHandler(metadata *service.MetadataService, qr *service.QRService,
	state *service.StateService) *ExtraHandler {
	return &ExtraHandler{metadata: metadata, qr: qr, state: state}
}

// Preview 抓取目标页 OG 元数据做预览；抓取失败返回空预览而非错误
func (h *ExtraHandler) Preview(c *gin.Context) {
	target := c.Query("url")
	if utils.ValidateTargetURL(target) != nil {
		_ = c.Error(apperrors.InvalidInputError("error.target_url_invalid"))
		return
	}

	meta := h.metadata.Fetch(c.Request.Context(), target)
	c.JSON(http.StatusOK, response.OK(meta, ""))
}

// GenerateQR 按用户偏好生成二维码图片地址；渲染端故障退化为基础样式
func (h *ExtraHandler) GenerateQR(c *gin.Context) {
	target := c.Query("url")
	if utils.ValidateTargetURL(target) != nil {
		_ = c.Error(apperrors.InvalidInputError("error.target_url_invalid"))
		return
	}

	owner := c.GetHeader("X-Owner-Id")
	pref := h.state.GetPreferences(owner)
	result := h.qr.Generate(c.Request.Context(), target, pref)
	c.JSON(http.StatusOK, gin.H{"success": true, "qr": result})
}

// SetPreferences 持久化 QR 样式偏好
func (h *ExtraHandler) SetPreferences(c *gin.Context) {
	var req dto.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInputErrorDefault())
		return
	}

	if err := h.state.SetPreferences(req.OwnerID, req.Style, req.ColorScheme); err != nil {
		_ = c.Error(apperrors.SystemError("Failed to store preferences: " + err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetPreferences 读取 QR 样式偏好
func (h *ExtraHandler) GetPreferences(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		_ = c.Error(apperrors.InvalidInputError("error.owner_required"))
		return
	}
	c.JSON(http.StatusOK, response.OK(h.state.GetPreferences(owner), ""))
}
