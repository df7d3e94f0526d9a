package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
	languages  []string
	bundleErr  error
)

func loadBundle() (*i18n.Bundle, error) {
	bundleOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			bundleErr = fmt.Errorf("read locales: %w", err)
			return
		}

		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
				continue
			}
			if _, err := b.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
				bundleErr = fmt.Errorf("load locale %s: %w", name, err)
				return
			}
			languages = append(languages, strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json"))
		}

		sort.Strings(languages)
		bundle = b
	})
	return bundle, bundleErr
}

// Languages returns the language codes with an embedded message file.
func Languages() []string {
	if _, err := loadBundle(); err != nil {
		return nil
	}
	return append([]string(nil), languages...)
}

// Translator localizes labels for one language. Unknown languages fall back
// to English.
type Translator struct {
	localizer *i18n.Localizer
}

// NewTranslator returns a translator for lang, e.g. "en" or "fr".
func NewTranslator(lang string) (*Translator, error) {
	b, err := loadBundle()
	if err != nil {
		return nil, err
	}
	return &Translator{localizer: i18n.NewLocalizer(b, lang)}, nil
}

// T returns the message for id, or id itself when it has no translation.
func (t *Translator) T(id string, data map[string]any) string {
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}

// Date formats the calendar date of ts in its own location.
func (t *Translator) Date(ts time.Time) string {
	return t.T("Date", map[string]any{
		"Month": t.T("Month"+strconv.Itoa(int(ts.Month())), nil),
		"Day":   fmt.Sprintf("%02d", ts.Day()),
		"Year":  ts.Year(),
	})
}

// Weekday returns the localized weekday name.
func (t *Translator) Weekday(d time.Weekday) string {
	return t.T("Weekday"+strconv.Itoa(int(d)), nil)
}
