package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// VerboseName derives a label from a field name the way model fields get
// their verbose name: separators become spaces, camelCase humps split into
// lower-case words and only the first letter is capitalised.
//
//	author_id   -> Author id
//	publishedAt -> Published at
func VerboseName(name string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}
	var prev rune
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
		prev = r
	}
	flush()
	return capFirst(strings.Join(words, " "))
}

// LabelFor returns the declared label or the field's verbose name.
func LabelFor(field Field) string {
	if label := strings.TrimSpace(field.Label); label != "" {
		return label
	}
	return VerboseName(field.Name)
}

func capFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
