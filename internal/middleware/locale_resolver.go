package middleware

import (
	"context"
	"net/http"
	"strings"

	"mainichinihongo.app/web/internal/i18n"
)

const localeCookieName = "hl"

// Locale resolves the preferred language and stores it in the session and the `hl` cookie.
// Order: ?hl= query, session, cookie, Accept-Language. Unsupported values are ignored.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), localeFallbackKey, bundle.Fallback())
			r = r.WithContext(ctx)
			s := GetSession(r)

			if q := strings.ToLower(r.URL.Query().Get("hl")); q != "" && bundle.IsSupported(q) {
				if s.Locale != q {
					s.Locale = q
					s.MarkDirty()
				}
				http.SetCookie(w, &http.Cookie{Name: localeCookieName, Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if s.Locale == "" || !bundle.IsSupported(s.Locale) {
				lang := ""
				if c, err := r.Cookie(localeCookieName); err == nil && bundle.IsSupported(strings.ToLower(c.Value)) {
					lang = strings.ToLower(c.Value)
				} else {
					lang = bundle.Resolve(r.Header.Get("Accept-Language"))
				}
				s.Locale = lang
				s.MarkDirty()
			}
			if s.Locale != "" {
				w.Header().Set("Content-Language", s.Locale)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Lang returns current lang from session, then the bundle fallback, then "ko".
func Lang(r *http.Request) string {
	if s := GetSession(r); s != nil && s.Locale != "" {
		return s.Locale
	}
	if fb, ok := r.Context().Value(localeFallbackKey).(string); ok && fb != "" {
		return fb
	}
	return "ko"
}
