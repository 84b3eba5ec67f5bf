// Package i18n looks up display strings for flow screens. Keys are the
// English strings themselves, so a missing translation shows the key.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Translator resolves keys for a single language.
type Translator struct {
	lang string
	dict map[string]string
}

// Get returns the translation of key, or key when there is none.
func (t *Translator) Get(key string) string {
	if t != nil {
		if v, ok := t.dict[key]; ok && v != "" {
			return v
		}
	}
	return key
}

// Lang is the BCP 47 tag of the translator's dictionary.
func (t *Translator) Lang() string {
	if t == nil {
		return "en"
	}
	return t.lang
}

// Bundle holds every embedded dictionary and picks one per request.
type Bundle struct {
	tags    []language.Tag
	dicts   map[string]map[string]string
	matcher language.Matcher
}

// NewBundle loads the embedded dictionaries. defaultLang must be one of them
// and is preferred when nothing in Accept-Language matches.
func NewBundle(defaultLang string) (*Bundle, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	def, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("default locale %q: %w", defaultLang, err)
	}

	b := &Bundle{dicts: make(map[string]map[string]string)}
	var others []language.Tag
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		raw, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, err
		}
		dict := make(map[string]string)
		if err := yaml.Unmarshal(raw, &dict); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", e.Name(), err)
		}
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("locale file %s: %w", e.Name(), err)
		}
		b.dicts[tag.String()] = dict
		if tag == def {
			continue
		}
		others = append(others, tag)
	}
	if _, ok := b.dicts[def.String()]; !ok {
		return nil, fmt.Errorf("no dictionary for default locale %q", defaultLang)
	}
	// The matcher falls back to the first tag.
	b.tags = append([]language.Tag{def}, others...)
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// ForAcceptLanguage returns the translator best matching an Accept-Language
// header value.
func (b *Bundle) ForAcceptLanguage(header string) *Translator {
	tags, _, _ := language.ParseAcceptLanguage(header)
	_, idx, _ := b.matcher.Match(tags...)
	tag := b.tags[idx]
	return &Translator{lang: tag.String(), dict: b.dicts[tag.String()]}
}
