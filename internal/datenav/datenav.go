// Package datenav implements calendar arithmetic over lesson date identifiers.
//
// Two identifier formats are accepted: compact YYYYMMDD, which is the canonical
// route form, and hyphenated YYYY-MM-DD. Neighbours are re-encoded in the format
// of the input. Dates carry no timezone; UTC midnight is used as the carrier.
package datenav

import (
	"strings"
	"time"
)

const (
	compactLayout = "20060102"
	hyphenLayout  = "2006-01-02"
)

// Format identifies one of the accepted identifier layouts.
type Format int

const (
	// Compact is YYYYMMDD.
	Compact Format = iota
	// Hyphenated is YYYY-MM-DD.
	Hyphenated
)

func (f Format) layout() string {
	if f == Hyphenated {
		return hyphenLayout
	}
	return compactLayout
}

// Detect reports the layout of id without validating the calendar date.
func Detect(id string) (Format, bool) {
	switch len(id) {
	case len(compactLayout):
		if allDigits(id) {
			return Compact, true
		}
	case len(hyphenLayout):
		if id[4] == '-' && id[7] == '-' && allDigits(id[:4]) && allDigits(id[5:7]) && allDigits(id[8:]) {
			return Hyphenated, true
		}
	}
	return Compact, false
}

// Parse returns the calendar date for id, or false when id is not a real date.
func Parse(id string) (time.Time, bool) {
	f, ok := Detect(id)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(f.layout(), id, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Encode formats t in the given layout.
func Encode(t time.Time, f Format) string {
	return t.Format(f.layout())
}

// Identifiers carry exactly four year digits.
const (
	minYear = 0
	maxYear = 9999
)

// Previous returns the identifier one calendar day before id in the same format.
func Previous(id string) (string, bool) {
	return shift(id, -1)
}

// Next returns the identifier one calendar day after id in the same format.
func Next(id string) (string, bool) {
	return shift(id, 1)
}

func shift(id string, days int) (string, bool) {
	f, ok := Detect(id)
	if !ok {
		return "", false
	}
	t, ok := Parse(id)
	if !ok {
		return "", false
	}
	n := t.AddDate(0, 0, days)
	if n.Year() < minYear || n.Year() > maxYear {
		return "", false
	}
	return Encode(n, f), true
}

// Canonical converts a valid identifier to the compact route form.
func Canonical(id string) (string, bool) {
	t, ok := Parse(id)
	if !ok {
		return "", false
	}
	return Encode(t, Compact), true
}

// FromTimestamp turns a backend createdAt value such as "2025-06-22T09:00:00" into
// the compact route identifier. Returns "" when the date part is not valid.
func FromTimestamp(createdAt string) string {
	datePart := strings.TrimSpace(createdAt)
	if i := strings.IndexByte(datePart, 'T'); i >= 0 {
		datePart = datePart[:i]
	}
	id, ok := Canonical(datePart)
	if !ok {
		return ""
	}
	return id
}

// Display renders id as YYYY-MM-DD for headings, or returns id unchanged when invalid.
func Display(id string) string {
	t, ok := Parse(id)
	if !ok {
		return id
	}
	return Encode(t, Hyphenated)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
