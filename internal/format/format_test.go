package format

import (
	"testing"
	"time"
)

func TestFmtCount(t *testing.T) {
	cases := []struct {
		n    int
		lang string
		want string
	}{
		{0, "ko", "0"},
		{1250, "ko", "1,250"},
		{1234567, "en", "1,234,567"},
		{42, "???", "42"},
	}
	for _, tc := range cases {
		if got := FmtCount(tc.n, tc.lang); got != tc.want {
			t.Errorf("FmtCount(%d, %q) = %q, want %q", tc.n, tc.lang, got, tc.want)
		}
	}
}

func TestFmtDate(t *testing.T) {
	d := time.Date(2025, time.June, 22, 0, 0, 0, 0, time.UTC)
	if got := FmtDate(d, "ko"); got != "2025년 6월 22일" {
		t.Errorf("ko: %q", got)
	}
	if got := FmtDate(d, "en"); got != "Jun 22, 2025" {
		t.Errorf("en: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("こんにちは世界", 5); got != "こんにちは…" {
		t.Errorf("unexpected truncate: %q", got)
	}
	if got := Truncate(" short ", 10); got != "short" {
		t.Errorf("unexpected truncate: %q", got)
	}
}
