// Package i18n loads the shop's Arabic and English message catalogues and
// translates labels, page text and invoices.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

type Translator struct {
	bundle      *i18n.Bundle
	defaultLang string
	localizers  map[string]*i18n.Localizer
}

func New(defaultLang string) (*Translator, error) {
	if defaultLang == "" {
		defaultLang = "ar"
	}
	bundle := i18n.NewBundle(language.Arabic)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Name(), err)
		}
	}

	t := &Translator{
		bundle:      bundle,
		defaultLang: defaultLang,
		localizers:  make(map[string]*i18n.Localizer),
	}
	for _, tag := range bundle.LanguageTags() {
		base, _ := tag.Base()
		t.localizers[base.String()] = i18n.NewLocalizer(bundle, tag.String(), defaultLang)
	}
	return t, nil
}

// Lang resolves a requested language to one the catalogue has, falling back
// to the default.
func (t *Translator) Lang(lang string) string {
	if _, ok := t.localizers[lang]; ok {
		return lang
	}
	return t.defaultLang
}

// Dir is the text direction of the language.
func (t *Translator) Dir(lang string) string {
	if t.Lang(lang) == "ar" {
		return "rtl"
	}
	return "ltr"
}

// T translates messageID. Missing messages come back as the id itself.
func (t *Translator) T(lang, messageID string, data map[string]any) string {
	localizer := t.localizers[t.Lang(lang)]
	if localizer == nil {
		return messageID
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID, TemplateData: data})
	if err != nil {
		return messageID
	}
	return msg
}
