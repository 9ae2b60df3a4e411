package i18n

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// SupportedLanguages 是手动维护的支持语言列表
var SupportedLanguages []string

// InitI18n 初始化 i18n 包（加载 TOML 消息文件）
func InitI18n(filePaths []string, defaultLang string) (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.MustParse(defaultLang))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	SupportedLanguages = make([]string, 0)

	for _, filePath := range filePaths {
		file, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}

		// 文件名即语言标签（en.toml -> "en"）
		lang := extractLanguageFromPath(filePath)
		SupportedLanguages = append(SupportedLanguages, lang)

		if _, err = bundle.ParseMessageFileBytes(file, filePath); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

func extractLanguageFromPath(filePath string) string {
	baseName := filepath.Base(filePath)
	return strings.TrimSuffix(baseName, filepath.Ext(baseName))
}

// T 按请求语言取本地化消息；Localizer 缺失时原样返回消息 ID
func T(ctx context.Context, key string, data map[string]interface{}) string {
	localizer, ok := ctx.Value("i18n.Localizer").(*i18n.Localizer)
	if !ok {
		return key
	}
	config := &i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	}
	msg, err := localizer.Localize(config)
	if err != nil {
		return key
	}
	return msg
}
