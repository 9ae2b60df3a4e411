package model

// DailyStats 每日统计桶（stats:{code}:{yyyyMMdd}），仅追加计数
type DailyStats struct {
	Clicks    int64            `json:"clicks"`
	Uniques   int64            `json:"uniques"`
	QRScans   int64            `json:"qrScans"`
	Referrers map[string]int64 `json:"referrers"`
	Countries map[string]int64 `json:"countries"`
}

// NewDailyStats 构造空桶（缺失桶等价于全零）
func NewDailyStats() *DailyStats {
	return &DailyStats{
		Referrers: make(map[string]int64),
		Countries: make(map[string]int64),
	}
}

// DayClicks 单日点击数，用于趋势序列
type DayClicks struct {
	Date   string `json:"date"` // yyyyMMdd
	Clicks int64  `json:"clicks"`
}

// StatsSummary N 天汇总结果
type StatsSummary struct {
	Clicks      int64            `json:"clicks"`
	Uniques     int64            `json:"uniques"`
	QRScans     int64            `json:"qrScans"`
	Referrers   map[string]int64 `json:"referrers"`
	Countries   map[string]int64 `json:"countries"`
	DailyClicks []DayClicks      `json:"dailyClicks"` // 从旧到新
}

// HistogramEntry topN 排序后的直方图条目
type HistogramEntry struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}
