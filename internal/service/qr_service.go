package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"linkgate/internal/model"
)

// ColorScheme QR 配色方案
type ColorScheme struct {
	Name       string
	Foreground string
	Background string
}

// 可选配色
var colorSchemes = map[string]ColorScheme{
	"classic": {Name: "Classic (Black & White)", Foreground: "#000000", Background: "#ffffff"},
	"blue":    {Name: "Business Blue", Foreground: "#1e40af", Background: "#f0f9ff"},
	"green":   {Name: "Nature Green", Foreground: "#166534", Background: "#f0fdf4"},
	"purple":  {Name: "Royal Purple", Foreground: "#7c3aed", Background: "#faf5ff"},
	"red":     {Name: "Energy Red", Foreground: "#dc2626", Background: "#fef2f2"},
	"orange":  {Name: "Warm Orange", Foreground: "#ea580c", Background: "#fff7ed"},
	"teal":    {Name: "Ocean Teal", Foreground: "#0f766e", Background: "#f0fdfa"},
	"pink":    {Name: "Soft Pink", Foreground: "#be185d", Background: "#fdf2f8"},
}

// QRResult QR 生成结果；Degraded 表示外部渲染失败后退化为基础样式
type QRResult struct {
	ImageURL string `json:"imageUrl"`
	Degraded bool   `json:"degraded,omitempty"`
}

// QRService 通过外部渲染服务生成带样式的二维码
type QRService struct {
	endpoint string
	client   *http.Client
}

func NewQRService(endpoint string) *QRService {
	if endpoint == "" {
		endpoint = "https://api.qrserver.com/v1/create-qr-code/"
	}
	return &QRService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// StyledImageURL 构造带配色的渲染地址；未知配色回退 classic
func (q *QRService) StyledImageURL(target string, pref *model.QRPreference) string {
	scheme, ok := colorSchemes[pref.ColorScheme]
	if !ok {
		scheme = colorSchemes["classic"]
	}
	return q.endpoint + "?size=400x400&data=" + url.QueryEscape(target) +
		"&color=" + strings.TrimPrefix(scheme.Foreground, "#") +
		"&bgcolor=" + strings.TrimPrefix(scheme.Background, "#")
}

// BasicImageURL 基础无样式渲染地址，作为退化方案
func (q *QRService) BasicImageURL(target string) string {
	return q.endpoint + "?size=400x400&data=" + url.QueryEscape(target)
}

// Generate 校验渲染服务可用后返回图片地址；
// 渲染端超时或出错时退化为基础样式返回，不作为硬失败向上传播
func (q *QRService) Generate(ctx context.Context, target string, pref *model.QRPreference) *QRResult {
	styled := q.StyledImageURL(target, pref)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, styled, nil)
	if err != nil {
		return &QRResult{ImageURL: q.BasicImageURL(target), Degraded: true}
	}

	resp, err := q.client.Do(req)
	if err != nil {
		zap.L().Warn("QR render service unavailable, falling back to basic style",
			zap.Error(err))
		return &QRResult{ImageURL: q.BasicImageURL(target), Degraded: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("QR render service returned non-success, falling back to basic style",
			zap.Int("status", resp.StatusCode))
		return &QRResult{ImageURL: q.BasicImageURL(target), Degraded: true}
	}

	return &QRResult{ImageURL: styled}
}
