// internal/i18n/i18n.go
//
// Message catalogs for the terminal view.
// Responsibilities:
//   - Parse the embedded locales/*.yaml catalogs (one language per file).
//   - Register them in an x/text catalog and hand out Printers per language.
//   - Translate plain messages (error texts produced by lower layers).
//
// Catalog keys are the English texts themselves, so a missing translation
// degrades to English instead of to a key name. English is the base locale
// and must be present; unknown languages fall back to it.

package i18n

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/numerito/apps/go-client/assets"
)

// BaseLocale is the fallback language.
var BaseLocale = language.English

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds every loaded catalog.
type Bundle struct {
	builder  *catalog.Builder
	messages map[language.Tag]map[string]string
	tags     []language.Tag // BaseLocale first
	matcher  language.Matcher
}

// Load parses the catalogs embedded in the binary.
func Load() (*Bundle, error) {
	files, err := assets.Locales()
	if err != nil {
		return nil, fmt.Errorf("read locale catalogs: %w", err)
	}
	return Parse(files)
}

// Parse builds a Bundle from catalog files.
func Parse(files []assets.File) (*Bundle, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	b := &Bundle{
		builder:  catalog.NewBuilder(catalog.Fallback(BaseLocale)),
		messages: map[language.Tag]map[string]string{},
	}

	for _, f := range files {
		var cf catalogFile
		if err := yaml.Unmarshal(f.Body, &cf); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", f.Name, err)
		}
		if strings.TrimSpace(cf.Locale) == "" {
			return nil, fmt.Errorf("catalog %s: locale is required", f.Name)
		}
		tag, err := language.Parse(cf.Locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: parse locale %q: %w", f.Name, cf.Locale, err)
		}
		if _, dup := b.messages[tag]; dup {
			return nil, fmt.Errorf("catalog %s: locale %q already defined", f.Name, cf.Locale)
		}

		msgs := make(map[string]string, len(cf.Messages))
		for key, value := range cf.Messages {
			if strings.TrimSpace(key) == "" {
				return nil, fmt.Errorf("catalog %s: message key cannot be blank", f.Name)
			}
			if err := b.builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("catalog %s: key %q: %w", f.Name, key, err)
			}
			msgs[key] = value
		}
		b.messages[tag] = msgs
		b.tags = append(b.tags, tag)
	}

	if _, ok := b.messages[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	sort.Slice(b.tags, func(i, j int) bool {
		if b.tags[i] == BaseLocale || b.tags[j] == BaseLocale {
			return b.tags[i] == BaseLocale
		}
		return b.tags[i].String() < b.tags[j].String()
	})
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Languages returns the loaded languages, BaseLocale first.
func (b *Bundle) Languages() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Messages returns a copy of one language's catalog.
func (b *Bundle) Messages(tag language.Tag) map[string]string {
	out := make(map[string]string, len(b.messages[tag]))
	for k, v := range b.messages[tag] {
		out[k] = v
	}
	return out
}

// Translator returns the translator best matching lang ("es", "es-AR", ...).
func (b *Bundle) Translator(lang string) *Translator {
	_, idx, _ := b.matcher.Match(language.Make(lang))
	tag := b.tags[idx]
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b.builder)),
		plain:   b.messages[tag],
	}
}

// Translator renders view text in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
	plain   map[string]string
}

// Tag is the selected language.
func (t *Translator) Tag() language.Tag { return t.tag }

// Sprintf formats the catalog entry for key.
func (t *Translator) Sprintf(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}

// Translate returns the catalog entry for msg, or msg itself. Unlike Sprintf
// it never interprets msg as a format, so it is safe for texts received from
// the game service.
func (t *Translator) Translate(msg string) string {
	if v, ok := t.plain[msg]; ok {
		return v
	}
	return msg
}
