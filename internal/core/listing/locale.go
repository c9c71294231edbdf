package listing

import (
	"time"

	"golang.org/x/text/language"
)

// isoLayout is used when the locale matches none of the supported layouts.
const isoLayout = "2006-01-02"

var (
	layoutTags = []language.Tag{
		language.BritishEnglish,
		language.AmericanEnglish,
		language.French,
		language.German,
		language.Spanish,
		language.Portuguese,
		language.Italian,
		language.Dutch,
	}
	layouts = []string{
		"2 Jan 2006",
		"Jan 2, 2006",
		"02/01/2006",
		"02.01.2006",
		"02/01/2006",
		"02/01/2006",
		"02/01/2006",
		"02-01-2006",
	}
	layoutMatcher = language.NewMatcher(layoutTags)
)

// DateFormatter renders completion dates for a locale.
type DateFormatter struct {
	locale string
	layout string
}

// NewDateFormatter returns a formatter for a BCP 47 locale tag.
func NewDateFormatter(locale string) *DateFormatter {
	return &DateFormatter{locale: locale, layout: layoutFor(locale)}
}

func layoutFor(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return isoLayout
	}
	_, index, confidence := layoutMatcher.Match(tag)
	if confidence == language.No {
		return isoLayout
	}
	return layouts[index]
}

// Locale returns the locale the formatter was built for.
func (f *DateFormatter) Locale() string {
	return f.locale
}

// Layout returns the time layout in use.
func (f *DateFormatter) Layout() string {
	return f.layout
}

// Format renders t in the local time zone, or "" when t is nil.
func (f *DateFormatter) Format(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Local().Format(f.layout)
}
