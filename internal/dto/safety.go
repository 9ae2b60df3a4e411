package dto

// CheckURLRequest 安全检查请求
type CheckURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ReportURLRequest 社区举报请求
type ReportURLRequest struct {
	URL        string `json:"url" binding:"required,url"`
	ReporterID string `json:"reporterId" binding:"required,max=64"`
}

// ReportResult 举报成功返回
type ReportResult struct {
	Domain      string `json:"domain"`
	ReportCount int64  `json:"reportCount"`
}

// PreferenceRequest QR 偏好设置请求
type PreferenceRequest struct {
	OwnerID     string `json:"ownerId" binding:"required,max=64"`
	Style       string `json:"style" binding:"required,oneof=square rounded dots"`
	ColorScheme string `json:"colorScheme" binding:"required,oneof=classic blue green purple red orange teal pink"`
}
