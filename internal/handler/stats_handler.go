package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"linkgate/internal/apperrors"
	"linkgate/internal/service"
	"linkgate/pkg/utils"
)

// StatsHandler 使用统计查询与导出
type StatsHandler struct {
	analytics *service.AnalyticsService
}

func NewStatsHandler(analytics *service.AnalyticsService) *StatsHandler {
	return &StatsHandler{analytics: analytics}
}

// GetStats 返回 N 天汇总、趋势序列与柱状图
func (h *StatsHandler) GetStats(c *gin.Context) {
	code := c.Param("code")
	if utils.ValidateShortCode(code) != nil {
		_ = c.Error(apperrors.InvalidInputError("error.shortcode_invalid"))
		return
	}

	daysStr := c.DefaultQuery("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days < 1 || days > 90 {
		_ = c.Error(apperrors.InvalidInputError("error.days_out_of_range"))
		return
	}

	summary, err := h.analytics.GetStats(code, days)
	if err != nil {
		_ = c.Error(apperrors.SystemError("Failed to aggregate stats: " + err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"totals":       summary,
		"topReferrers": service.TopN(summary.Referrers, 3),
		"topCountries": service.TopN(summary.Countries, 3),
		"barChart":     service.BuildBarChart(summary.DailyClicks),
	})
}

// ExportCSV 导出 CSV，默认 30 天
func (h *StatsHandler) ExportCSV(c *gin.Context) {
	code := c.Param("code")
	if utils.ValidateShortCode(code) != nil {
		_ = c.Error(apperrors.InvalidInputError("error.shortcode_invalid"))
		return
	}

	daysStr := c.DefaultQuery("days", "30")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days < 1 || days > 90 {
		_ = c.Error(apperrors.InvalidInputError("error.days_out_of_range"))
		return
	}

	csv, err := h.analytics.ExportCSV(code, days)
	if err != nil {
		_ = c.Error(apperrors.SystemError("Failed to export stats: " + err.Error()))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+code+`-stats.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}
