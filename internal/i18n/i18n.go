// Package i18n loads the console's message catalogs and resolves notices
// and labels for a locale.
package i18n

import (
	"embed"
	"io/fs"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var locales embed.FS

// Bundle holds every loaded catalog.
type Bundle struct {
	bundle    *i18n.Bundle
	matcher   language.Matcher
	supported []language.Tag
	fallback  language.Tag
}

// New loads the embedded catalogs. defaultLocale is used when a request
// names no supported language.
func New(defaultLocale string) (*Bundle, error) {
	fallback, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing default locale %q", defaultLocale)
	}

	bundle := i18n.NewBundle(fallback)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "locales/*.toml")
	if err != nil {
		return nil, errors.Wrap(err, "listing locales")
	}

	// The default locale goes first so the matcher prefers it.
	supported := []language.Tag{fallback}
	for _, file := range files {
		data, err := locales.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", file)
		}
		mf, err := bundle.ParseMessageFileBytes(data, path.Base(file))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", file)
		}
		if mf.Tag != fallback {
			supported = append(supported, mf.Tag)
		}
	}

	return &Bundle{
		bundle:    bundle,
		matcher:   language.NewMatcher(supported),
		supported: supported,
		fallback:  fallback,
	}, nil
}

// Default returns the default locale code.
func (b *Bundle) Default() string {
	return b.fallback.String()
}

// Match picks the best supported locale for an Accept-Language header or a
// locale code.
func (b *Bundle) Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return b.fallback.String()
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback.String()
	}
	base, _ := b.supported[idx].Base()
	return base.String()
}

// Localizer returns a localizer for locale.
func (b *Bundle) Localizer(locale string) *Localizer {
	return &Localizer{
		localizer: i18n.NewLocalizer(b.bundle, locale, b.fallback.String()),
	}
}

// Localizer resolves message ids for one locale.
type Localizer struct {
	localizer *i18n.Localizer
}

// T resolves id. Unknown ids come back unchanged so a missing translation
// is visible rather than blank.
func (l *Localizer) T(id string, data map[string]any) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return id
	}
	return msg
}

// Notice renders a notice, appending the failure detail when present.
func (l *Localizer) Notice(n *domain.Notice) string {
	if n == nil {
		return ""
	}
	msg := l.T(n.MessageID, n.Data)
	if n.Detail != "" {
		msg += ": " + n.Detail
	}
	return msg
}

// Text resolves id without template data.
func (l *Localizer) Text(id string) string {
	return l.T(id, nil)
}

// Total renders the row count line.
func (l *Localizer) Total(n int) string {
	return l.T("UI.Total", map[string]any{"Count": n})
}
