package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mainichinihongo.app/web/internal/observability"
)

// Logger attaches a request-scoped zap logger to the context and emits one
// structured entry per request. Served requests are also counted per route pattern.
func Logger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = observability.NoopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rid := chiMid.GetReqID(r.Context())
			logger := base
			ctx := r.Context()
			if rid != "" {
				logger = logger.With(zap.String("request_id", rid))
				ctx = WithRequestID(ctx, rid)
			}
			ctx = observability.WithLogger(ctx, logger)

			ww := chiMid.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, statusClass(status)).Inc()

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("remote_ip", clientIP(r)),
				zap.Bool("htmx", IsHTMX(r.Context())),
			}
			switch {
			case status >= 500:
				logger.Error("request", fields...)
			case status >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// clientIP prefers RemoteAddr as rewritten by chi's RealIP, then proxy headers.
func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if host == "" {
		if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
			return xrip
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			p := strings.Split(xff, ",")
			return strings.TrimSpace(p[0])
		}
		return ""
	}
	if strings.Count(host, ":") == 1 || strings.HasPrefix(host, "[") {
		if i := strings.LastIndex(host, ":"); i != -1 {
			host = host[:i]
		}
	}
	return strings.Trim(host, "[]")
}
