package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ValidateShortCode 校验 ShortCode 是否合法
func ValidateShortCode(shortCode string) error {
	if shortCode == "" {
		return fmt.Errorf("error.shortcode_required")
	}

	if ContainsWhitespace(shortCode) {
		return fmt.Errorf("error.shortcode_cannot_contain_spaces")
	}

	shortCodePattern := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	if !shortCodePattern.MatchString(shortCode) {
		return fmt.Errorf("error.shortcode_invalid")
	}

	return nil
}

// ValidateTargetURL 校验目标 URL 的合法性
func ValidateTargetURL(targetURL string) error {
	if targetURL == "" {
		return fmt.Errorf("error.target_url_required")
	}

	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("error.target_url_invalid")
	}

	if len(targetURL) > 2048 {
		return fmt.Errorf("error.target_url_max_length")
	}
	return nil
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

var durationPattern = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseExpiry 解析过期参数（30m、2h、7d 或 RFC3339 时间），返回毫秒时间戳
// 空串返回 0 表示不过期；无法解析或不在未来返回错误
func ParseExpiry(s string, now time.Time) (int64, error) {
	if s == "" {
		return 0, nil
	}

	if m := durationPattern.FindStringSubmatch(strings.ToLower(s)); m != nil {
		value, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("error.expiry_invalid")
		}
		var unit time.Duration
		switch m[2] {
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		case "d":
			unit = 24 * time.Hour
		}
		return now.Add(time.Duration(value) * unit).UnixMilli(), nil
	}

	// 回退到绝对时间
	t, err := time.Parse(time.RFC3339, s)
	if err != nil || !t.After(now) {
		return 0, fmt.Errorf("error.expiry_invalid")
	}
	return t.UnixMilli(), nil
}

// RegistrableDomain 提取去除 www 前缀的域名
func RegistrableDomain(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
