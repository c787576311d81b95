package middleware

import "net/http"

// localeVary lists the request headers Locale reads: Accept-Language, plus
// Cookie for the hl cookie and the session.
var localeVary = []string{"Accept-Language", "Cookie"}

// VaryLocale marks page responses as varying by the inputs of Locale, so shared
// caches keep the Korean and English renderings apart.
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range localeVary {
			w.Header().Add("Vary", h)
		}
		next.ServeHTTP(w, r)
	})
}
