package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresAbsoluteURL(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	_, err = NewClient("localhost")
	require.Error(t, err)

	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", c.BaseURL())
}

func TestGetJSONSendsQueryAndDecodes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/contents/list", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"totalPages":3}`)
	}))

	var out struct {
		TotalPages int `json:"totalPages"`
	}
	err := c.GetJSON(context.Background(), "/api/contents/list", url.Values{"page": {"2"}}, &out)
	require.NoError(t, err)
	require.Equal(t, 3, out.TotalPages)
}

func TestGetJSONMalformedBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))

	var out map[string]any
	err := c.GetJSON(context.Background(), "/api/subscribers", nil, &out)
	require.True(t, IsKind(err, KindMalformed))
	require.Equal(t, MessageMalformed, UserMessage(err, ""))
}

func TestErrorNormalization(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{name: "server", status: http.StatusInternalServerError, body: `{"message":"boom"}`, kind: KindServer, message: MessageServer},
		{name: "bad gateway", status: http.StatusBadGateway, body: ``, kind: KindServer, message: MessageServer},
		{name: "client json", status: http.StatusConflict, body: `{"message":"이미 구독 중인 이메일입니다."}`, kind: KindClient, message: "이미 구독 중인 이메일입니다."},
		{name: "client text", status: http.StatusBadRequest, body: "잘못된 이메일 형식입니다.\n", kind: KindClient, message: "잘못된 이메일 형식입니다."},
		{name: "client json string", status: http.StatusNotFound, body: `"구독 정보가 없습니다."`, kind: KindClient, message: "구독 정보가 없습니다."},
		{name: "client empty", status: http.StatusNotFound, body: ``, kind: KindClient, message: MessageGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			_, err := c.PostJSON(context.Background(), "/api/subscribe", map[string]string{"email": "a@example.com"})
			require.Error(t, err)

			var bErr *Error
			require.True(t, errors.As(err, &bErr))
			require.Equal(t, tc.kind, bErr.Kind)
			require.Equal(t, tc.status, bErr.Status)
			require.Equal(t, tc.message, bErr.Message)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(base)
	require.NoError(t, err)

	_, err = c.PostJSON(context.Background(), "/api/subscribe", map[string]string{"email": "a@example.com"})
	require.True(t, IsKind(err, KindNetwork))
	require.Equal(t, MessageNetwork, UserMessage(err, ""))
	require.Equal(t, "error.network", err.(*Error).Key())
}

func TestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "/api/subscribers", nil, nil)
	require.True(t, IsKind(err, KindNetwork))
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGetTextDecodesCharset(t *testing.T) {
	// "日本" in Shift_JIS
	sjis := []byte{0x93, 0xfa, 0x96, 0x7b}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/html", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
		_, _ = w.Write(sjis)
	}))

	body, err := c.GetText(context.Background(), "/api/contents/20250622", "text/html")
	require.NoError(t, err)
	require.Equal(t, "日本", body)
}

func TestStreamPreservesContentType(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "こんにちは", r.URL.Query().Get("text"))
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF"))
	}))

	body, ct, err := c.Stream(context.Background(), "/api/tts/audio", url.Values{"text": {"こんにちは"}, "speaker": {"7"}})
	require.NoError(t, err)
	defer body.Close()
	require.Equal(t, "audio/wav", ct)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(data))
}

func TestRouteLabel(t *testing.T) {
	require.Equal(t, "/api/contents/{id}", routeLabel("/api/contents/20250622"))
	require.Equal(t, "/api/contents/{id}", routeLabel("/api/contents/2025-06-22"))
	require.Equal(t, "/api/contents/list", routeLabel("/api/contents/list"))
}
