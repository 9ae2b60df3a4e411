package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"linkgate/internal/apperrors"
	"linkgate/internal/dto"
	"linkgate/internal/i18n"
	"linkgate/internal/metrics"
	"linkgate/internal/service"
)

// SafetyHandler URL 风险评估与社区举报入口
type SafetyHandler struct {
	safety *service.SafetyService
}

func NewSafetyHandler(safety *service.SafetyService) *SafetyHandler {
	return &SafetyHandler{safety: safety}
}

// CheckURL 启发式 + 信誉服务的完整检查
func (h *SafetyHandler) CheckURL(c *gin.Context) {
	var req dto.CheckURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInputErrorDefault())
		return
	}

	verdict := h.safety.FullCheck(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"level":   verdict.Level.String(),
		"reasons": verdict.Reasons,
	})
}

// ReportURL 社区举报，限流由服务层执行
func (h *SafetyHandler) ReportURL(c *gin.Context) {
	var req dto.ReportURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInputErrorDefault())
		return
	}

	domain, count, err := h.safety.Report(req.URL, req.ReporterID)
	if err != nil {
		zap.L().Warn("URL report rejected",
			zap.Error(err),
			zap.String("reporter", req.ReporterID),
		)
		_ = c.Error(err)
		return
	}

	metrics.Reports.Inc()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ReportResult{Domain: domain, ReportCount: count},
		"message": i18n.T(c.Request.Context(), "message.report_accepted", nil),
	})
}
