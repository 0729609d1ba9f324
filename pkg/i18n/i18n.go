// Package i18n holds the localized messages attached to validation errors.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys used by validation checks.
const (
	KeyInvalidChoice    = "check.invalid_choice"
	KeyMaxLength        = "check.max_length"
	KeyMaxDigits        = "check.max_digits"
	KeyMaxDecimalPlaces = "check.max_decimal_places"
	KeyMaxWholeDigits   = "check.max_whole_digits"
	KeyInvalidDecimal   = "check.invalid_decimal"
	KeyRequired         = "check.required"
	KeyTag              = "check.tag"
	KeyCoerce           = "check.coerce"
	KeyUnknownColumn    = "form.unknown_column"
	DefaultLanguage     = "en"
)

// Localizer renders a message key with its arguments.
type Localizer interface {
	Sprintf(key string, args ...any) string
}

var supported = []language.Tag{language.English, language.Polish}

var messages = map[language.Tag]map[string]string{
	language.English: {
		KeyInvalidChoice:    "Cell contains a value that does not match the allowed values.",
		KeyMaxLength:        "Cell exceeds the maximum length (%d characters).",
		KeyMaxDigits:        "Ensure that there are no more than %d digits in total.",
		KeyMaxDecimalPlaces: "Ensure that there are no more than %d decimal places.",
		KeyMaxWholeDigits:   "Ensure that there are no more than %d digits before the decimal point.",
		KeyInvalidDecimal:   "Enter a number.",
		KeyRequired:         "This field is required.",
		KeyTag:              "Cell failed the %q rule.",
		KeyCoerce:           "Cell value %q cannot be converted to %s.",
		KeyUnknownColumn:    "Unknown column %q.",
	},
	language.Polish: {
		KeyInvalidChoice:    "Komórka zawiera dane które nie zgadzają się z możliwymi wartościami!",
		KeyMaxLength:        "Komórka przekracza maksymalną długość (%d znaków)!",
		KeyMaxDigits:        "Upewnij się, że łącznie nie ma więcej niż %d cyfr.",
		KeyMaxDecimalPlaces: "Upewnij się, że nie ma więcej niż %d miejsc po przecinku.",
		KeyMaxWholeDigits:   "Upewnij się, że przed przecinkiem nie ma więcej niż %d cyfr.",
		KeyInvalidDecimal:   "Wpisz liczbę.",
		KeyRequired:         "To pole jest wymagane.",
		KeyTag:              "Komórka nie spełnia reguły %q.",
		KeyCoerce:           "Wartości %q nie można przekształcić na %s.",
		KeyUnknownColumn:    "Nieznana kolumna %q.",
	},
}

var (
	builder = newCatalog()
	matcher = language.NewMatcher(supported)
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range messages {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

type printer struct {
	p *message.Printer
}

func (l printer) Sprintf(key string, args ...any) string {
	return l.p.Sprintf(key, args...)
}

// New returns a Localizer for the closest supported language to lang. Unknown
// or empty tags fall back to English.
func New(lang string) Localizer {
	return printer{p: message.NewPrinter(Match(lang), message.Catalog(builder))}
}

// Default returns the English localizer.
func Default() Localizer {
	return New(DefaultLanguage)
}

// Match returns the supported tag closest to lang, which may be a single tag
// or an Accept-Language header value.
func Match(lang string) language.Tag {
	trimmed := strings.TrimSpace(lang)
	if trimmed == "" {
		return language.English
	}
	requested, _, err := language.ParseAcceptLanguage(trimmed)
	if err != nil || len(requested) == 0 {
		return language.English
	}
	_, idx, confidence := matcher.Match(requested...)
	if confidence == language.No {
		return language.English
	}
	return supported[idx]
}

// Languages lists the supported language tags.
func Languages() []string {
	out := make([]string, 0, len(supported))
	for _, tag := range supported {
		out = append(out, tag.String())
	}
	return out
}
