package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"linkgate/constant"
	"linkgate/internal/apperrors"
	"linkgate/internal/metrics"
	"linkgate/internal/model"
	"linkgate/internal/repository"
	"linkgate/pkg/utils"
)

// Level 安全级别，封闭枚举，升级全序 safe < suspicious < dangerous
type Level int

const (
	LevelSafe Level = iota
	LevelSuspicious
	LevelDangerous
)

func (l Level) String() string {
	switch l {
	case LevelSuspicious:
		return "suspicious"
	case LevelDangerous:
		return "dangerous"
	default:
		return "safe"
	}
}

// escalate 只升不降
func escalate(current, next Level) Level {
	if next > current {
		return next
	}
	return current
}

// Verdict 启发式分析结果
type Verdict struct {
	Level   Level    `json:"level"`
	Reasons []string `json:"reasons"`
}

// ReputationResult 外部信誉服务查询结果
type ReputationResult struct {
	Safe    bool     `json:"safe"`
	Threats []string `json:"threats,omitempty"`
	Err     string   `json:"error,omitempty"`
}

// 高频滥用 TLD
var suspiciousTLDs = map[string]struct{}{
	".tk": {}, ".ml": {}, ".ga": {}, ".cf": {}, ".gq": {},
	".zip": {}, ".mov": {}, ".top": {}, ".buzz": {}, ".work": {},
}

// 仿冒检测对照的高价值域名
var popularDomains = []string{
	"google.com", "facebook.com", "amazon.com", "apple.com", "microsoft.com",
	"paypal.com", "netflix.com", "instagram.com", "twitter.com", "linkedin.com",
	"github.com", "dropbox.com", "yahoo.com", "outlook.com", "gmail.com",
}

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// ReportDailyCap 每人每日举报上限
const ReportDailyCap = 10

// SafetyConfig 信誉服务配置
type SafetyConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// SafetyService 发布前的 URL 风险评估与社区举报
type SafetyService struct {
	store  repository.Store
	client *http.Client
	cfg    SafetyConfig
	now    func() time.Time
}

func NewSafetyService(store repository.Store, cfg SafetyConfig) *SafetyService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &SafetyService{
		store:  store,
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		now:    time.Now,
	}
}

// AnalyzeHeuristics 启发式风险分析。各检查独立累加，级别只升不降
func (s *SafetyService) AnalyzeHeuristics(urlString string) *Verdict {
	verdict := &Verdict{Level: LevelSafe, Reasons: []string{}}

	parsed, err := url.Parse(urlString)
	if err != nil || parsed.Hostname() == "" {
		return &Verdict{Level: LevelDangerous, Reasons: []string{"Invalid URL"}}
	}
	hostname := strings.ToLower(parsed.Hostname())

	// punycode 编码标记
	if strings.Contains(hostname, "xn--") {
		verdict.Reasons = append(verdict.Reasons, "Contains punycode (internationalized characters that may mimic ASCII)")
		verdict.Level = escalate(verdict.Level, LevelSuspicious)
	}

	// 仿冒域名：与高价值域名编辑距离 ≤2（排除完全相同），命中第一个即止
	baseDomain := utils.RegistrableDomain(hostname)
	for _, popular := range popularDomains {
		if baseDomain == popular {
			continue
		}
		if dist := levenshtein(baseDomain, popular); dist > 0 && dist <= 2 {
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("Looks similar to %s (edit distance: %d)", popular, dist))
			verdict.Level = escalate(verdict.Level, LevelSuspicious)
			break
		}
	}

	// 高频滥用 TLD
	labels := strings.Split(hostname, ".")
	tld := "." + labels[len(labels)-1]
	if _, abused := suspiciousTLDs[tld]; abused {
		verdict.Reasons = append(verdict.Reasons, "Uses suspicious TLD: "+tld)
		verdict.Level = escalate(verdict.Level, LevelSuspicious)
	}

	// 超长 URL
	if len(urlString) > 2000 {
		verdict.Reasons = append(verdict.Reasons, "Excessively long URL (>2000 characters)")
		verdict.Level = escalate(verdict.Level, LevelSuspicious)
	}

	// 过多子域层级
	if len(labels) > 4 {
		verdict.Reasons = append(verdict.Reasons,
			fmt.Sprintf("Excessive subdomains (%d levels)", len(labels)))
		verdict.Level = escalate(verdict.Level, LevelSuspicious)
	}

	// IP 直连
	if ipv4Pattern.MatchString(hostname) {
		verdict.Reasons = append(verdict.Reasons, "Uses IP address instead of domain name")
		verdict.Level = escalate(verdict.Level, LevelSuspicious)
	}

	// host 前出现 @（凭据伪装），直接判定危险
	lowered := strings.ToLower(urlString)
	if at := strings.Index(lowered, "@"); at >= 0 && at < strings.Index(lowered, hostname) {
		verdict.Reasons = append(verdict.Reasons, "Contains @ symbol before hostname (credential trick)")
		verdict.Level = LevelDangerous
	}

	// 社区举报：≥3 危险，≥1 可疑
	var entry model.ReputationEntry
	ok, err := s.store.GetJSON(constant.GetBlocklistKey(baseDomain), &entry)
	if err != nil {
		zap.L().Warn("Failed to read blocklist entry",
			zap.String("domain", baseDomain),
			zap.Error(err))
	}
	if ok {
		if entry.ReportCount >= 3 {
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("Community-reported as suspicious (%d reports)", entry.ReportCount))
			verdict.Level = LevelDangerous
		} else if entry.ReportCount >= 1 {
			plural := ""
			if entry.ReportCount > 1 {
				plural = "s"
			}
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("Community-reported (%d report%s)", entry.ReportCount, plural))
			verdict.Level = escalate(verdict.Level, LevelSuspicious)
		}
	}

	return verdict
}

// Safe Browsing v4 请求/响应
type threatEntry struct {
	URL string `json:"url"`
}

type threatMatch struct {
	ThreatType string `json:"threatType"`
}

type reputationRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string      `json:"threatTypes"`
		PlatformTypes    []string      `json:"platformTypes"`
		ThreatEntryTypes []string      `json:"threatEntryTypes"`
		ThreatEntries    []threatEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type reputationResponse struct {
	Matches []threatMatch `json:"matches"`
}

// CheckReputation 查询外部信誉服务，超时有界。
// 传输失败或非 2xx 一律 fail open：按 safe 处理并记录原因，可用性优先
func (s *SafetyService) CheckReputation(ctx context.Context, urlString string) *ReputationResult {
	var req reputationRequest
	req.Client.ClientID = "linkgate"
	req.Client.ClientVersion = "2.0.0"
	req.ThreatInfo.ThreatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION"}
	req.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	req.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	req.ThreatInfo.ThreatEntries = []threatEntry{{URL: urlString}}

	body, err := json.Marshal(&req)
	if err != nil {
		return &ReputationResult{Safe: true, Err: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.Endpoint+"?key="+url.QueryEscape(s.cfg.APIKey), bytes.NewReader(body))
	if err != nil {
		return &ReputationResult{Safe: true, Err: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		zap.L().Warn("Reputation service unreachable, failing open",
			zap.Error(err))
		return &ReputationResult{Safe: true, Err: err.Error()}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close reputation response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("Reputation service returned non-success, failing open",
			zap.Int("status", resp.StatusCode))
		return &ReputationResult{Safe: true, Err: "API error"}
	}

	var data reputationResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return &ReputationResult{Safe: true, Err: err.Error()}
	}

	threats := make([]string, 0, len(data.Matches))
	for _, m := range data.Matches {
		threats = append(threats, m.ThreatType)
	}
	return &ReputationResult{Safe: len(threats) == 0, Threats: threats}
}

// FullCheck 启发式与信誉查询并发执行；信誉结论前置合并，
// 命中信誉库时最终级别无条件为 dangerous
func (s *SafetyService) FullCheck(ctx context.Context, urlString string) *Verdict {
	repCh := make(chan *ReputationResult, 1)
	go func() {
		repCh <- s.CheckReputation(ctx, urlString)
	}()

	verdict := s.AnalyzeHeuristics(urlString)
	rep := <-repCh

	if !rep.Safe {
		verdict.Level = LevelDangerous
		verdict.Reasons = append(
			[]string{"Reputation service: " + strings.Join(rep.Threats, ", ")},
			verdict.Reasons...)
	}

	metrics.SafetyVerdicts.WithLabelValues(verdict.Level.String()).Inc()
	return verdict
}

// Report 举报域名。每人每日限 10 次；同一举报人对同一域名幂等：
// 限流计数照增，举报计数只在首次计入
func (s *SafetyService) Report(urlString, reporter string) (string, int64, error) {
	parsed, err := url.Parse(urlString)
	if err != nil || parsed.Hostname() == "" {
		return "", 0, apperrors.InvalidInputError("error.target_url_invalid")
	}
	domain := utils.RegistrableDomain(parsed.Hostname())

	date := constant.GetDateKey(s.now())
	limitKey := constant.GetReportLimitKey(reporter, date)

	raw, _, err := s.store.GetString(limitKey)
	if err != nil {
		return "", 0, apperrors.SystemError("Failed to read report counter: " + err.Error())
	}
	count, _ := strconv.ParseInt(raw, 10, 64)
	if count >= ReportDailyCap {
		return "", 0, apperrors.RateLimitedError("error.report_limit_reached")
	}

	if err := s.store.PutStringTTL(limitKey, strconv.FormatInt(count+1, 10), constant.ReportLimitTTL); err != nil {
		return "", 0, apperrors.SystemError("Failed to bump report counter: " + err.Error())
	}

	blockKey := constant.GetBlocklistKey(domain)
	var entry model.ReputationEntry
	if _, err := s.store.GetJSON(blockKey, &entry); err != nil {
		return "", 0, apperrors.SystemError("Failed to read blocklist entry: " + err.Error())
	}

	if !entry.HasReporter(reporter) {
		entry.ReportedBy = append(entry.ReportedBy, reporter)
		entry.ReportCount++
		entry.ReportedAt = s.now().UnixMilli()
	}

	if err := s.store.PutJSON(blockKey, &entry); err != nil {
		return "", 0, apperrors.SystemError("Failed to write blocklist entry: " + err.Error())
	}

	return domain, entry.ReportCount, nil
}

// levenshtein 编辑距离
func levenshtein(a, b string) int {
	m, n := len(a), len(b)
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min3(prev[j], curr[j-1], prev[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
