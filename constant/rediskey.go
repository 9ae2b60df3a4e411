package constant

import (
	"fmt"
	"time"
)

// 常量定义
const (
	Separator = ":"
)

// Redis 键模板（单一扁平命名空间）
const (
	LinkEntity    = "link" + Separator + "%s"                                          // link:{code} 实体 JSON
	OwnerIndex    = "user" + Separator + "%s"                                          // user:{owner} 链接索引
	DailyStats    = "stats" + Separator + "%s" + Separator + "%s"                      // stats:{code}:{yyyyMMdd}
	VisitorMarker = "visitor" + Separator + "%s" + Separator + "%s" + Separator + "%s" // visitor:{code}:{fp}:{yyyyMMdd}
	Blocklist     = "blocklist" + Separator + "%s"                                     // blocklist:{domain}
	ReportLimit   = "ratelimit" + Separator + "report" + Separator + "%s" + Separator + "%s"
	DialogState   = "state" + Separator + "%s" // state:{conversation}
	QRPreference  = "pref" + Separator + "%s"  // pref:{owner}
	MetadataCache = "meta" + Separator + "%s"  // meta:{url}
)

// TTL 定义（秒）
const (
	VisitorMarkerTTL = 24 * 3600
	ReportLimitTTL   = 24 * 3600
	DialogStateTTL   = 3600
	MetadataCacheTTL = 7 * 24 * 3600
)

// GetLinkKey 生成实体 key
func GetLinkKey(code string) string {
	return fmt.Sprintf(LinkEntity, code)
}

// GetLegacyKey 生成旧格式 key（裸 code → URL 字符串）
func GetLegacyKey(code string) string {
	return code
}

// GetOwnerIndexKey 生成用户链接索引 key
func GetOwnerIndexKey(owner string) string {
	return fmt.Sprintf(OwnerIndex, owner)
}

// GetDateKey 生成指定时间的日期键（格式：yyyyMMdd，UTC）
func GetDateKey(t time.Time) string {
	return t.UTC().Format("20060102")
}

// GetDailyStatsKey 生成每日统计 key（格式：stats:{code}:{yyyyMMdd}）
func GetDailyStatsKey(code, date string) string {
	return fmt.Sprintf(DailyStats, code, date)
}

// GetVisitorMarkerKey 生成访客去重 key
func GetVisitorMarkerKey(code, fingerprint, date string) string {
	return fmt.Sprintf(VisitorMarker, code, fingerprint, date)
}

// GetBlocklistKey 生成域名举报 key
func GetBlocklistKey(domain string) string {
	return fmt.Sprintf(Blocklist, domain)
}

// GetReportLimitKey 生成举报限流 key
func GetReportLimitKey(reporter, date string) string {
	return fmt.Sprintf(ReportLimit, reporter, date)
}

// GetDialogStateKey 生成会话状态 key
func GetDialogStateKey(conversation string) string {
	return fmt.Sprintf(DialogState, conversation)
}

// GetQRPreferenceKey 生成 QR 偏好 key
func GetQRPreferenceKey(owner string) string {
	return fmt.Sprintf(QRPreference, owner)
}

// GetMetadataCacheKey 生成元数据缓存 key（URL 截断到 200 字符）
func GetMetadataCacheKey(url string) string {
	if len(url) > 200 {
		url = url[:200]
	}
	return fmt.Sprintf(MetadataCache, url)
}
