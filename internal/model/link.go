package model

// 链接类型
const (
	TypeRedirect = "redirect"
	TypePage     = "page"
)

// PageButton bio 页按钮
type PageButton struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// PageContent bio 页内容
type PageContent struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Buttons     []PageButton `json:"buttons"`
	Theme       string       `json:"theme"`
}

// Link 短链实体（KV 存储格式，link:{code}）
type Link struct {
	Type          string       `json:"type"`
	TargetURL     string       `json:"url,omitempty"`
	Page          *PageContent `json:"page,omitempty"`
	CreatedBy     string       `json:"createdBy"`
	CreatedAt     int64        `json:"createdAt"` // 毫秒时间戳
	ExpiresAt     int64        `json:"expiresAt,omitempty"`
	MaxClicks     int64        `json:"maxClicks,omitempty"`
	CurrentClicks int64        `json:"currentClicks"`
}

// OwnerIndex 用户链接索引（user:{owner}）
type OwnerIndex struct {
	Links []string `json:"links"`
}

// Contains 判断索引中是否已存在指定 code
func (idx *OwnerIndex) Contains(code string) bool {
	for _, c := range idx.Links {
		if c == code {
			return true
		}
	}
	return false
}
