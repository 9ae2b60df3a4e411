package model

// ReputationEntry 社区举报记录（blocklist:{domain}），不会自动删除
type ReputationEntry struct {
	ReportedBy  []string `json:"reportedBy"`
	ReportCount int64    `json:"reportCount"`
	ReportedAt  int64    `json:"reportedAt"` // 毫秒时间戳
}

// HasReporter 判断举报人是否已投过票（每人每域名只计一次）
func (e *ReputationEntry) HasReporter(reporter string) bool {
	for _, r := range e.ReportedBy {
		if r == reporter {
			return true
		}
	}
	return false
}
