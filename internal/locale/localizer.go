package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localizedata embed.FS

const (
	Fa = "fa"
	En = "en"
)

type locale struct {
	locale string
}

type Locale interface {
	GetLocale() string
}

func NewLocale(l string) Locale {
	return &locale{
		locale: l,
	}
}

func (l *locale) GetLocale() string {
	return l.locale
}

type localizer struct {
	Locale
	*i18n.Localizer
}

type Localizer interface {
	Locale
	MustLocalize(id string) string
	MustLocalizeWithTemplate(id string, fields ...string) string
}

func NewLocalizer(locale Locale) (Localizer, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files := []string{
		"en.json",
		"fa.json",
	}

	for _, f := range files {
		data, err := localizedata.ReadFile(fmt.Sprintf("locales/%s", f))
		if err != nil {
			return nil, fmt.Errorf("failed to load translation data: %s", f)
		}

		bundle.MustParseMessageFileBytes(data, f)
	}

	return &localizer{
		locale,
		i18n.NewLocalizer(bundle, locale.GetLocale()),
	}, nil
}

func (l *localizer) MustLocalize(id string) string {
	return l.Localizer.MustLocalize(&i18n.LocalizeConfig{
		MessageID: id,
	})
}

func (l *localizer) MustLocalizeWithTemplate(id string, fields ...string) string {
	td := make(map[string]interface{}, len(fields))

	for i, f := range fields {
		td["f"+strconv.Itoa(i+1)] = f
	}

	return l.Localizer.MustLocalize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: td,
	})
}
