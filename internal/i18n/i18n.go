// Package i18n holds the dashboard's English and Japanese labels and the
// locale-aware number formatting used on KPI cards.
package i18n

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Lang is a supported dashboard language code
type Lang string

const (
	English  Lang = "en"
	Japanese Lang = "jp"
)

// Supported lists the languages in matcher preference order
var Supported = []Lang{English, Japanese}

var (
	supportedTags = []language.Tag{language.English, language.Japanese}
	matcher       = language.NewMatcher(supportedTags)
)

// Tag returns the BCP 47 tag of the language
func (l Lang) Tag() language.Tag {
	if l == Japanese {
		return language.Japanese
	}
	return language.English
}

// DisplayName returns the language's own name, as shown in the selector
func (l Lang) DisplayName() string {
	if l == Japanese {
		return "日本語"
	}
	return "English"
}

// T translates key into lang, falling back to the key itself
func T(key string, lang Lang) string {
	entry, ok := translations[key]
	if !ok {
		return key
	}
	if s, ok := entry[lang]; ok {
		return s
	}
	if s, ok := entry[English]; ok {
		return s
	}
	return key
}

// Tf translates key and formats the result with args
func Tf(key string, lang Lang, args ...any) string {
	return fmt.Sprintf(T(key, lang), args...)
}

// Parse maps a language code, display name, BCP 47 tag or Accept-Language
// header value to a supported language
func Parse(s string) (Lang, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return "", false
	case "en", "english":
		return English, true
	case "jp", "japanese", "日本語":
		return Japanese, true
	}

	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return Supported[idx], true
}

// ParseOr is Parse with a fallback for unsupported input
func ParseOr(s string, fallback Lang) Lang {
	if l, ok := Parse(s); ok {
		return l
	}
	return fallback
}

// Keys returns every label key, sorted
func Keys() []string {
	keys := make([]string, 0, len(translations))
	for k := range translations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Table returns a copy of every label in lang
func Table(lang Lang) map[string]string {
	out := make(map[string]string, len(translations))
	for k := range translations {
		out[k] = T(k, lang)
	}
	return out
}

// IsAllLabel reports whether s is the "All" filter label in any language
func IsAllLabel(s string) bool {
	for _, l := range Supported {
		if s == T("all_option", l) {
			return true
		}
	}
	return false
}

// FormatCount renders an integer with the locale's digit grouping
func FormatCount(lang Lang, n int) string {
	return message.NewPrinter(lang.Tag()).Sprintf("%d", n)
}

// FormatPercent renders a fraction as a percentage with two decimals
func FormatPercent(lang Lang, f float64) string {
	return message.NewPrinter(lang.Tag()).Sprintf("%.2f%%", f*100)
}
