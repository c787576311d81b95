package format

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FmtCount renders n with locale digit grouping, e.g. 1250 => "1,250".
func FmtCount(n int, lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Korean
	}
	return message.NewPrinter(tag).Sprintf("%d", n)
}

// FmtDate formats a calendar date in a locale-friendly short form.
func FmtDate(t time.Time, lang string) string {
	switch strings.ToLower(lang) {
	case "ko":
		return t.Format("2006년 1월 2일")
	case "ja":
		return t.Format("2006年1月2日")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if n <= 0 || len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
