package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"mainichinihongo.app/web/internal/i18n"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessionFlashIsShownOnce(t *testing.T) {
	sessions := NewSessions("test-key", false, nil)
	var seen *Alert
	h := sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		if r.Method == http.MethodPost {
			s.SetFlash(AlertSuccess, "구독이 완료되었습니다!")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		seen = s.TakeFlash()
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/subscribe", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c := sessionCookie(t, rec)
	require.NotNil(t, c)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotNil(t, seen)
	require.Equal(t, AlertSuccess, seen.Type)
	c2 := sessionCookie(t, rec)
	require.NotNil(t, c2, "flash removal must rewrite the cookie")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c2)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Nil(t, seen)
	require.Nil(t, sessionCookie(t, rec), "unchanged session must not be rewritten")
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	sessions := NewSessions("test-key", false, nil)
	var id string
	h := sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetSession(r).ID
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	first := id
	c := sessionCookie(t, rec)
	require.NotNil(t, c)

	other := NewSessions("other-key", false, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	other.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetSession(r).ID
	})).ServeHTTP(rec, req)
	require.NotEqual(t, first, id)
}

func csrfRouter() http.Handler {
	sessions := NewSessions("test-key", false, nil)
	r := chi.NewRouter()
	r.Use(HTMX)
	r.Use(sessions.Middleware)
	r.Use(CSRF(false))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CSRFToken(r)))
	})
	r.Post("/subscribe", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestCSRFAcceptsFormFieldAndHeader(t *testing.T) {
	h := csrfRouter()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	token := rec.Body.String()
	require.NotEmpty(t, token)
	c := sessionCookie(t, rec)
	require.NotNil(t, c)

	// missing token
	req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader("email=a%40b.c"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// form field
	form := url.Values{"email": {"a@b.c"}, csrfFormField: {token}}
	req = httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// htmx header
	req = httptest.NewRequest(http.MethodPost, "/subscribe", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set(csrfHeader, token)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// wrong token via htmx gets a JSON error
	req = httptest.NewRequest(http.MethodPost, "/subscribe", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set(csrfHeader, "nope")
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestRateLimiterRefusesBurstOverflow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 1, 1)

	r := chi.NewRouter()
	r.Use(rl.Middleware)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Post("/subscribe", ok)
	r.Get("/", ok)

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, map[string]string{http.MethodPost: "/subscribe", http.MethodGet: "/"}[method], nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do(http.MethodPost).Code)
	rec := do(http.MethodPost)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))
	require.Equal(t, http.StatusOK, do(http.MethodGet).Code, "page views are never limited")

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/subscribe", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	other := httptest.NewRecorder()
	r.ServeHTTP(other, req)
	require.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimiterCustomRefusal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 10, 1)
	rl.OnLimit = func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/unsubscribe", nil))
		if i == 1 {
			require.Equal(t, http.StatusSeeOther, rec.Code)
			require.Equal(t, "6", rec.Header().Get("Retry-After"))
		}
	}
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 10, 1)
	now := time.Date(2025, 6, 22, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("192.0.2.1")
	now = now.Add(4 * time.Minute)
	rl.getLimiter("192.0.2.2")
	now = now.Add(2 * time.Minute)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	require.NotContains(t, rl.limiters, "192.0.2.1")
	require.Contains(t, rl.limiters, "192.0.2.2")
}

func TestLocaleResolution(t *testing.T) {
	bundle, err := i18n.Load("../../locales", "ko", []string{"ko", "en"})
	require.NoError(t, err)
	sessions := NewSessions("test-key", false, nil)
	var lang string
	h := sessions.Middleware(Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = Lang(r)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", lang)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))

	req = httptest.NewRequest(http.MethodGet, "/?hl=ko", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "ko", lang)

	req = httptest.NewRequest(http.MethodGet, "/?hl=xx", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "ko", lang, "unsupported hl falls back")
}

func TestAssetsWithCacheETag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o600))

	h := http.StripPrefix("/assets", AssetsWithCache(dir, false))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	et := rec.Header().Get("ETag")
	require.NotEmpty(t, et)
	require.Contains(t, rec.Header().Get("Cache-Control"), "max-age")

	req := httptest.NewRequest(http.MethodGet, "/assets/app.css", nil)
	req.Header.Set("If-None-Match", et)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	dev := http.StripPrefix("/assets", AssetsWithCache(dir, true))
	rec = httptest.NewRecorder()
	dev.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.css", nil))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Empty(t, rec.Header().Get("ETag"))
}

func TestResponseRecorderRunsHookOnce(t *testing.T) {
	calls := 0
	rec := httptest.NewRecorder()
	rw := NewResponseRecorder(rec)
	rw.SetBeforeWrite(func(w http.ResponseWriter) {
		calls++
		w.Header().Set("X-Hook", "1")
	})
	rw.WriteHeader(http.StatusAccepted)
	_, _ = rw.Write([]byte("a"))
	rw.Flush()
	require.Equal(t, 1, calls)
	require.Equal(t, http.StatusAccepted, rw.Status())
	require.Equal(t, "1", rec.Header().Get("X-Hook"))
}

func TestWriteErrorCarriesRequestIDForHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/subscribe", nil)
	req = req.WithContext(WithRequestID(WithHTMX(req.Context(), true), "req-42"))
	rec := httptest.NewRecorder()
	WriteError(rec, req, http.StatusBadRequest, "text is required")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.JSONEq(t, `{"error":"text is required","request_id":"req-42"}`, rec.Body.String())

	plain := httptest.NewRecorder()
	WriteError(plain, httptest.NewRequest(http.MethodGet, "/tts/player", nil), http.StatusBadRequest, "text is required")
	require.Equal(t, "text is required\n", plain.Body.String())
}

func TestVaryLocaleListsLocaleInputs(t *testing.T) {
	h := VaryLocale(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contents", nil))
	require.ElementsMatch(t, []string{"Accept-Language", "Cookie"}, rec.Header().Values("Vary"))
}
