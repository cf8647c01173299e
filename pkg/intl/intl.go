package intl

import (
	"context"
	"encoding/json"

	"github.com/BurntSushi/toml"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/iota-uz/hrm-lifecycle/pkg/constants"
)

type SupportedLanguage struct {
	Code        string
	VerboseName string
	Tag         language.Tag
}

var (
	allSupportedLanguages = []SupportedLanguage{
		{
			Code:        "en",
			VerboseName: "English",
			Tag:         language.English,
		},
		{
			Code:        "zh",
			VerboseName: "中文",
			Tag:         language.Chinese,
		},
	}

	SupportedLanguages = allSupportedLanguages
)

// GetSupportedLanguages filters the supported languages by code. An empty
// whitelist returns all of them.
func GetSupportedLanguages(whitelist []string) []SupportedLanguage {
	if len(whitelist) == 0 {
		return allSupportedLanguages
	}
	allowed := make(map[string]bool, len(whitelist))
	for _, code := range whitelist {
		allowed[code] = true
	}
	filtered := make([]SupportedLanguage, 0, len(whitelist))
	for _, lang := range allSupportedLanguages {
		if allowed[lang.Code] {
			filtered = append(filtered, lang)
		}
	}
	return filtered
}

// Tags returns the language tags for the given codes.
func Tags(codes []string) []language.Tag {
	supported := GetSupportedLanguages(codes)
	tags := make([]language.Tag, len(supported))
	for i, lang := range supported {
		tags[i] = lang.Tag
	}
	return tags
}

// NewBundle returns an empty bundle falling back to defaultLocale that reads
// toml and json message files.
func NewBundle(defaultLocale language.Tag) *i18n.Bundle {
	bundle := i18n.NewBundle(defaultLocale)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return bundle
}

func WithLocalizer(ctx context.Context, l *i18n.Localizer) context.Context {
	return context.WithValue(ctx, constants.LocalizerKey, l)
}

func UseLocalizer(ctx context.Context) (*i18n.Localizer, bool) {
	l, ok := ctx.Value(constants.LocalizerKey).(*i18n.Localizer)
	return l, ok && l != nil
}

func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, constants.LocaleKey, tag)
}

// UseLocale returns the request locale, English when none was attached.
func UseLocale(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(constants.LocaleKey).(language.Tag); ok {
		return tag
	}
	return language.English
}

// Localize renders messageID with data, falling back to fallback when the
// context has no localizer or the catalog has no such message.
func Localize(ctx context.Context, messageID string, data map[string]string, fallback string) string {
	l, ok := UseLocalizer(ctx)
	if !ok {
		return fallback
	}
	var td map[string]any
	if len(data) > 0 {
		td = make(map[string]any, len(data))
		for k, v := range data {
			td[k] = v
		}
	}
	msg, err := l.Localize(&i18n.LocalizeConfig{MessageID: messageID, TemplateData: td})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
