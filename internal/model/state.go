package model

// DialogState 会话状态记录（state:{conversation}，TTL 1 小时）
// 取代进程内 map，跨调用通过 KV 显式读写
type DialogState struct {
	Action string            `json:"action"`
	Step   string            `json:"step,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

// QRPreference 用户 QR 样式偏好（pref:{owner}）
type QRPreference struct {
	Style       string `json:"style"`
	ColorScheme string `json:"colorScheme"`
}

// PageMetadata 目标页 OG 元数据（meta:{url}，TTL 7 天）
type PageMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Domain      string `json:"domain"`
	FetchedAt   int64  `json:"fetchedAt"`
}
