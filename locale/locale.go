// Package locale provides the bot's localized texts, loaded from YAML
// files embedded in the binary.
package locale

import (
	"fmt"
	"strings"

	"embed"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/sardorm/telegram-elon-bot/flow"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Provider implements flow.TextProvider over the embedded catalogs.
type Provider struct {
	defaultLang string
	catalogs    map[string]map[string]string
}

func NewProvider(defaultLang string) (*Provider, error) {
	p := &Provider{
		defaultLang: defaultLang,
		catalogs:    map[string]map[string]string{},
	}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("reading embedded locales: %w", err)
	}
	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".yaml")
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading locale %s: %w", lang, err)
		}
		catalog := map[string]string{}
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("parsing locale %s: %w", lang, err)
		}
		p.catalogs[lang] = catalog
	}

	if _, ok := p.catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("no catalog for default language %q", defaultLang)
	}
	return p, nil
}

// Resolve returns the text for key in lang, falling back to the default
// language. Unknown keys come back as a visibly marked placeholder so a
// missing translation never shows up as an empty message.
func (p *Provider) Resolve(key, lang string, params map[string]string) string {
	catalog, ok := p.catalogs[lang]
	if !ok {
		catalog = p.catalogs[p.defaultLang]
	}
	text, ok := catalog[key]
	if !ok {
		text, ok = p.catalogs[p.defaultLang][key]
		if !ok {
			log.Warn().Str("key", key).Str("lang", lang).Msg("missing localization key")
			return "_" + key + "_"
		}
	}

	text = strings.TrimSpace(dedent.Dedent(text))
	for k, v := range params {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

// Languages returns the codes of all loaded catalogs.
func (p *Provider) Languages() []string {
	var out []string
	for lang := range p.catalogs {
		out = append(out, lang)
	}
	return out
}

// Supported lists the selectable languages in display order.
func Supported() []flow.Language {
	return []flow.Language{
		{Code: "en", Label: "🇬🇧 English"},
		{Code: "ru", Label: "🇷🇺 Русский"},
		{Code: "uz", Label: "🇺🇿 Oʻzbekcha"},
	}
}
