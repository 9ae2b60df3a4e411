package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"linkgate/internal/apperrors"
	"linkgate/internal/dto"
	"linkgate/internal/i18n"
	"linkgate/internal/metrics"
	"linkgate/internal/model"
	"linkgate/internal/render"
	"linkgate/internal/service"
	"linkgate/pkg/utils"
	"linkgate/response"
)

// LinkHandler 短链生命周期与解析入口
type LinkHandler struct {
	links     *service.LinkService
	analytics *service.AnalyticsService
	safety    *service.SafetyService
	baseURL   string
}

func NewLinkHandler(links *service.LinkService, analytics *service.AnalyticsService,
	safety *service.SafetyService, baseURL string) *LinkHandler {
	return &LinkHandler{
		links:     links,
		analytics: analytics,
		safety:    safety,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// CreateLink 发布短链。先过安全评估：dangerous 拒绝；suspicious 需要用户显式确认
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req dto.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidInputErrorDefault())
		return
	}
	if err := req.Validate(); err != nil {
		_ = c.Error(apperrors.InvalidInputError(err.Error()))
		return
	}

	verdict := h.safety.FullCheck(c.Request.Context(), req.TargetURL)
	switch verdict.Level {
	case service.LevelDangerous:
		_ = c.Error(apperrors.InvalidInputError("error.url_dangerous"))
		return
	case service.LevelSuspicious:
		if !req.Force {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"level":   verdict.Level.String(),
				"reasons": verdict.Reasons,
				"message": i18n.T(c.Request.Context(), "message.confirm_suspicious", nil),
			})
			return
		}
	}

	expiresAt, err := utils.ParseExpiry(req.ExpiresIn, time.Now())
	if err != nil {
		_ = c.Error(apperrors.InvalidInputError(err.Error()))
		return
	}

	code, link, err := h.links.Create(req.TargetURL, req.OwnerID, service.CreateOptions{
		ExpiresAt: expiresAt,
		MaxClicks: req.MaxClicks,
	})
	if err != nil {
		zap.L().Warn("Link creation failed",
			zap.Error(err),
			zap.String("owner", req.OwnerID),
		)
		_ = c.Error(err)
		return
	}

	metrics.Creates.Inc()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": dto.LinkResponse{
			Code:     code,
			ShortURL: h.baseURL + "/" + code,
			Type:     link.Type,
		},
		"level":   verdict.Level.String(),
		"message": i18n.T(c.Request.Context(), "message.link_created", nil),
	})
}

// CreatePage 创建 bio 页
func (h *LinkHandler) CreatePage(c *gin.Context) {
	var req dto.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInputErrorDefault())
		return
	}

	buttons := make([]model.PageButton, 0, len(req.Buttons))
	for _, b := range req.Buttons {
		buttons = append(buttons, model.PageButton{Label: b.Label, URL: b.URL})
	}

	code, _, err := h.links.CreatePage(req.OwnerID, model.PageContent{
		Title:       req.Title,
		Description: req.Description,
		Buttons:     buttons,
		Theme:       req.Theme,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"code":    code,
		"pageUrl": h.baseURL + "/bio/" + code,
		"message": i18n.T(c.Request.Context(), "message.page_created", nil),
	})
}

// ListLinks 查询用户名下的短码
func (h *LinkHandler) ListLinks(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		_ = c.Error(apperrors.InvalidInputError("error.owner_required"))
		return
	}

	codes, err := h.links.ListByOwner(owner)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(codes, ""))
}

// UpdateLink 归属校验后的字段修改
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	code := c.Param("code")

	var req dto.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInputErrorDefault())
		return
	}

	patch := service.LinkPatch{
		TargetURL:         req.TargetURL,
		Title:             req.Title,
		Description:       req.Description,
		Theme:             req.Theme,
		RemoveButtonIndex: req.RemoveButtonIndex,
	}
	if req.AddButton != nil {
		patch.AddButton = &model.PageButton{Label: req.AddButton.Label, URL: req.AddButton.URL}
	}

	if err := h.links.Edit(code, req.OwnerID, patch); err != nil {
		zap.L().Warn("Link update failed",
			zap.Error(err),
			zap.String("code", code),
		)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": i18n.T(c.Request.Context(), "message.link_updated", nil)})
}

// DeleteLink 归属校验后删除
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")
	owner := c.GetHeader("X-Owner-Id")
	if owner == "" {
		_ = c.Error(apperrors.InvalidInputError("error.owner_required"))
		return
	}

	if err := h.links.Delete(code, owner); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": i18n.T(c.Request.Context(), "message.link_deleted", nil)})
}

// Redirect 根路径捕获：解析短码并按状态机响应。
// 终止态渲染 410 页面，绝不重定向；Active 才进入计数与统计
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := strings.TrimPrefix(c.Request.URL.Path, "/")
	if utils.ValidateShortCode(code) != nil {
		c.Status(http.StatusNotFound)
		return
	}

	res, err := h.links.Resolve(code)
	if err != nil {
		_ = c.Error(err)
		return
	}
	metrics.Resolves.WithLabelValues(res.State.String()).Inc()

	switch res.State {
	case service.StateNotFound:
		c.Status(http.StatusNotFound)
	case service.StateExpired:
		c.Data(http.StatusGone, "text/html; charset=utf-8", []byte(render.TerminalPage(false)))
	case service.StateExhausted:
		c.Data(http.StatusGone, "text/html; charset=utf-8", []byte(render.TerminalPage(true)))
	default:
		if res.Link.Type == model.TypePage {
			c.Redirect(http.StatusFound, "/bio/"+code)
			return
		}

		// 限次链接先同步写回计数，再发响应
		limited := res.Link.MaxClicks > 0
		if limited {
			if err := h.links.RecordHit(code); err != nil {
				zap.L().Warn("Failed to record hit",
					zap.String("code", code),
					zap.Error(err))
			}
		}

		h.dispatchEvent(c, code, c.Query("src") == "qr", limited)

		// 302 避免浏览器缓存重定向，保证目标可编辑
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Redirect(http.StatusFound, res.Link.TargetURL)
	}
}

// ServeBioPage bio 页展示
func (h *LinkHandler) ServeBioPage(c *gin.Context) {
	code := c.Param("code")

	res, err := h.links.Resolve(code)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if res.State == service.StateNotFound || res.Link.Type != model.TypePage {
		c.Status(http.StatusNotFound)
		return
	}
	if res.State != service.StateActive {
		c.Data(http.StatusGone, "text/html; charset=utf-8", []byte(render.TerminalPage(res.State == service.StateExhausted)))
		return
	}

	h.dispatchEvent(c, code, false, false)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(render.BioPage(res.Link.Page)))
}

// dispatchEvent 统计记录与主响应解耦：独立 goroutine，不挂请求 context，
// 请求取消不会中止已派发的记录
func (h *LinkHandler) dispatchEvent(c *gin.Context, code string, isQR, hitCounted bool) {
	origin := service.EventOrigin{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.GetHeader("Referer"),
		Country:   c.GetHeader("CF-IPCountry"),
	}
	go h.analytics.RecordEvent(code, origin, isQR, hitCounted)
}
