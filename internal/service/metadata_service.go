package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"linkgate/constant"
	"linkgate/internal/model"
	"linkgate/internal/repository"
)

// MetadataService 抓取目标页 OG 元数据做链接预览，带 7 天 KV 缓存
type MetadataService struct {
	store  repository.Store
	client *http.Client
	now    func() time.Time
}

func NewMetadataService(store repository.Store) *MetadataService {
	return &MetadataService{
		store:  store,
		client: &http.Client{Timeout: 3 * time.Second},
		now:    time.Now,
	}
}

var titlePattern = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

// Fetch 抓取并解析元数据；超时、非 HTML、解析失败都返回 nil，不作为硬错误
func (m *MetadataService) Fetch(ctx context.Context, target string) *model.PageMetadata {
	cacheKey := constant.GetMetadataCacheKey(url.QueryEscape(target))

	var cached model.PageMetadata
	if ok, err := m.store.GetJSON(cacheKey, &cached); err == nil && ok {
		return &cached
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; LinkBot/2.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return nil
	}

	// 正文截断 512KB，预览用途足够
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}
	html := string(body)

	parsed, err := url.Parse(target)
	if err != nil {
		return nil
	}

	meta := &model.PageMetadata{
		Title:       firstNonEmpty(ExtractMetaTag(html, "og:title"), extractTitle(html)),
		Description: firstNonEmpty(ExtractMetaTag(html, "og:description"), ExtractMetaTag(html, "description")),
		Image:       ExtractMetaTag(html, "og:image"),
		Domain:      parsed.Hostname(),
		FetchedAt:   m.now().UnixMilli(),
	}

	if meta.Title != "" || meta.Description != "" {
		_ = m.store.PutJSONTTL(cacheKey, meta, constant.MetadataCacheTTL)
	}

	return meta
}

// ExtractMetaTag 从 HTML 中提取 meta 标签内容，兼容 property/name 与属性顺序互换
func ExtractMetaTag(html, property string) string {
	escaped := regexp.QuoteMeta(property)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["']` + escaped + `["'][^>]+content=["']([^"']+)["']`),
		regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]+(?:property|name)=["']` + escaped + `["']`),
	}
	for _, p := range patterns {
		if m := p.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}

func extractTitle(html string) string {
	if m := titlePattern.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
