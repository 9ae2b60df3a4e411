package service

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"linkgate/constant"
	"linkgate/internal/metrics"
	"linkgate/internal/model"
	"linkgate/internal/repository"
)

// EventOrigin 单次访问的请求上下文
type EventOrigin struct {
	IP        string
	UserAgent string
	Referer   string
	Country   string
}

// AnalyticsService 按日聚合的访问统计
type AnalyticsService struct {
	store repository.Store
	now   func() time.Time
}

func NewAnalyticsService(store repository.Store) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// VisitorFingerprint IP+UA 的 SHA-256 摘要，截断 16 位十六进制。
// 碰撞风险按可忽略处理，不作为安全边界
func VisitorFingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + ":" + userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

// RecordEvent 记录一次访问：点击数恒增，QR 扫码按需增，去重标记控制独立访客数。
// 调用方以 fire-and-forget 方式触发，失败只记日志，绝不阻塞主响应。
// hitCounted 为 true 表示解析路径已同步计过实体点击数（限次链接），此处不再重复累加。
func (s *AnalyticsService) RecordEvent(code string, origin EventOrigin, isQRScan, hitCounted bool) {
	date := constant.GetDateKey(s.now())
	statsKey := constant.GetDailyStatsKey(code, date)

	stats := model.NewDailyStats()
	if _, err := s.store.GetJSON(statsKey, stats); err != nil {
		zap.L().Warn("Failed to read daily stats, starting from zero",
			zap.String("code", code),
			zap.Error(err))
		stats = model.NewDailyStats()
	}
	if stats.Referrers == nil {
		stats.Referrers = make(map[string]int64)
	}
	if stats.Countries == nil {
		stats.Countries = make(map[string]int64)
	}

	stats.Clicks++
	if isQRScan {
		stats.QRScans++
	}

	if origin.Referer != "" {
		if parsed, err := url.Parse(origin.Referer); err == nil && parsed.Hostname() != "" {
			stats.Referrers[parsed.Hostname()]++
		}
	}

	country := origin.Country
	if country == "" {
		country = "unknown"
	}
	stats.Countries[country]++

	fingerprint := VisitorFingerprint(origin.IP, origin.UserAgent)
	visitorKey := constant.GetVisitorMarkerKey(code, fingerprint, date)
	seen, err := s.store.Exists(visitorKey)
	if err != nil {
		zap.L().Warn("Failed to check visitor marker",
			zap.String("code", code),
			zap.Error(err))
	}
	if !seen {
		stats.Uniques++
		if err := s.store.PutStringTTL(visitorKey, "1", constant.VisitorMarkerTTL); err != nil {
			zap.L().Warn("Failed to write visitor marker",
				zap.String("code", code),
				zap.Error(err))
		}
	}

	if err := s.store.PutJSON(statsKey, stats); err != nil {
		metrics.AnalyticsDropped.Inc()
		zap.L().Error("Failed to write daily stats",
			zap.String("code", code),
			zap.String("date", date),
			zap.Error(err))
		return
	}

	// 不限次链接的实体点击数只在这里累加
	if !hitCounted {
		var link model.Link
		ok, err := s.store.GetJSON(constant.GetLinkKey(code), &link)
		if err == nil && ok {
			link.CurrentClicks++
			if err := s.store.PutJSON(constant.GetLinkKey(code), &link); err != nil {
				zap.L().Warn("Failed to bump link click counter",
					zap.String("code", code),
					zap.Error(err))
			}
		}
	}
}

// GetStats 汇总最近 days 天（含今天）的统计，缺失桶按全零合并；
// 返回的日序列从旧到新
func (s *AnalyticsService) GetStats(code string, days int) (*model.StatsSummary, error) {
	summary := &model.StatsSummary{
		Referrers: make(map[string]int64),
		Countries: make(map[string]int64),
	}

	for i := 0; i < days; i++ {
		day := s.now().UTC().AddDate(0, 0, -i)
		date := constant.GetDateKey(day)

		stats := model.NewDailyStats()
		ok, err := s.store.GetJSON(constant.GetDailyStatsKey(code, date), stats)
		if err != nil {
			return nil, err
		}
		if ok {
			summary.Clicks += stats.Clicks
			summary.Uniques += stats.Uniques
			summary.QRScans += stats.QRScans
			for k, v := range stats.Referrers {
				summary.Referrers[k] += v
			}
			for k, v := range stats.Countries {
				summary.Countries[k] += v
			}
			summary.DailyClicks = append(summary.DailyClicks, model.DayClicks{Date: date, Clicks: stats.Clicks})
		} else {
			summary.DailyClicks = append(summary.DailyClicks, model.DayClicks{Date: date, Clicks: 0})
		}
	}

	// 迭代是从今天往回，序列反转成从旧到新
	for i, j := 0, len(summary.DailyClicks)-1; i < j; i, j = i+1, j-1 {
		summary.DailyClicks[i], summary.DailyClicks[j] = summary.DailyClicks[j], summary.DailyClicks[i]
	}

	return summary, nil
}

// 9 级柱状图字形
var barGlyphs = []string{"_", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// BuildBarChart 把日点击序列映射为单行字形串，按序列最大值缩放；
// 全零序列渲染为最低字形
func BuildBarChart(series []model.DayClicks) string {
	if len(series) == 0 {
		return "No data"
	}

	var max int64 = 1
	for _, d := range series {
		if d.Clicks > max {
			max = d.Clicks
		}
	}

	var sb strings.Builder
	for _, d := range series {
		level := int(math.Round(float64(d.Clicks) / float64(max) * 8))
		sb.WriteString(barGlyphs[level])
	}
	return sb.String()
}

// TopN 直方图取前 n 项，按计数降序；计数相同时按键名字典序升序
func TopN(histogram map[string]int64, n int) []model.HistogramEntry {
	entries := make([]model.HistogramEntry, 0, len(histogram))
	for k, v := range histogram {
		entries = append(entries, model.HistogramEntry{Key: k, Count: v})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// ExportCSV 导出 CSV：表头 + 每天一行，与内部迭代一致的从新到旧顺序。
// 此顺序是兼容性约定，不可改动
func (s *AnalyticsService) ExportCSV(code string, days int) (string, error) {
	var sb strings.Builder
	sb.WriteString("Date,Clicks,Uniques,QR Scans\n")

	for i := 0; i < days; i++ {
		day := s.now().UTC().AddDate(0, 0, -i)
		date := constant.GetDateKey(day)
		formatted := day.Format("2006-01-02")

		stats := model.NewDailyStats()
		ok, err := s.store.GetJSON(constant.GetDailyStatsKey(code, date), stats)
		if err != nil {
			return "", err
		}

		if ok {
			sb.WriteString(formatted + "," +
				strconv.FormatInt(stats.Clicks, 10) + "," +
				strconv.FormatInt(stats.Uniques, 10) + "," +
				strconv.FormatInt(stats.QRScans, 10) + "\n")
		} else {
			sb.WriteString(formatted + ",0,0,0\n")
		}
	}

	return sb.String(), nil
}
