package i18n

import (
	"embed"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/active.*.toml
var translations embed.FS

var (
	bundle *i18n.Bundle
	// supported lists the catalog languages, English first.
	supported []language.Tag
	matcher   language.Matcher
)

func init() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	files, err := fs.Glob(translations, "translations/active.*.toml")
	if err != nil {
		panic(err)
	}
	for _, file := range files {
		if _, err := bundle.LoadMessageFileFS(translations, file); err != nil {
			panic(err)
		}
	}
	supported = bundle.LanguageTags()
	matcher = language.NewMatcher(supported)
}

type C = i18n.LocalizeConfig
type Template = map[string]interface{}

// T localizes a message for an Accept-Language value. An unknown message gives an empty string.
func T(lang string, c C) string {
	s, _ := i18n.NewLocalizer(bundle, lang).Localize(&c)
	return s
}

// Lang returns the catalog language chosen for an Accept-Language value.
func Lang(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.English
	}
	return supported[idx]
}
