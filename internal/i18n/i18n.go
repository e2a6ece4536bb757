// Package i18n holds the localized string tables for the bot.
// Tables are plain key -> format-string lookups with no logic.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var localesFS embed.FS

// Lang is a supported language tag.
type Lang string

const (
	// LangRU is Russian, the default language.
	LangRU Lang = "ru"
	// LangEN is English.
	LangEN Lang = "en"
)

// DefaultLang is used when no preference was recorded for a conversation.
const DefaultLang = LangRU

// ParseLang maps a raw tag to a supported Lang, falling back to the default.
func ParseLang(raw string) Lang {
	switch Lang(raw) {
	case LangEN:
		return LangEN
	case LangRU:
		return LangRU
	default:
		return DefaultLang
	}
}

// Translator resolves message keys to localized strings.
type Translator struct {
	tables map[Lang]map[string]string
}

// NewTranslator loads the embedded locale tables.
func NewTranslator() (*Translator, error) {
	return newTranslatorFS(localesFS)
}

func newTranslatorFS(fsys fs.FS) (*Translator, error) {
	tables := make(map[Lang]map[string]string, 2)
	for _, lang := range []Lang{LangRU, LangEN} {
		filePath := path.Join("locales", fmt.Sprintf("%s.yaml", lang))
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", filePath, err)
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse locale file %s: %w", filePath, err)
		}
		tables[lang] = table
	}
	return &Translator{tables: tables}, nil
}

// T resolves key for lang, formatting args via fmt.Sprintf when provided.
// Unknown languages fall back to the default table; unknown keys fall back
// to the key itself so a missing translation never hides a reply.
func (t *Translator) T(lang Lang, key string, args ...interface{}) string {
	table, ok := t.tables[lang]
	if !ok {
		table = t.tables[DefaultLang]
	}
	format, ok := table[key]
	if !ok {
		if fallback, found := t.tables[DefaultLang][key]; found {
			format = fallback
		} else {
			return key
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
