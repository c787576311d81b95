package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mainichinihongo.app/web/internal/backend"
	"mainichinihongo.app/web/internal/cms"
	"mainichinihongo.app/web/internal/config"
	"mainichinihongo.app/web/internal/contents"
	"mainichinihongo.app/web/internal/i18n"
	mw "mainichinihongo.app/web/internal/middleware"
	"mainichinihongo.app/web/internal/observability"
	"mainichinihongo.app/web/internal/reqseq"
	"mainichinihongo.app/web/internal/subscription"
)

const (
	requestTimeout = 30 * time.Second
	pageCacheTTL   = 5 * time.Minute
)

// app wires configuration, services, and rendering for the HTTP handlers.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	i18n     *i18n.Bundle
	render   *renderer
	cms      *cms.Store
	subs     *subscription.Service
	contents *contents.Service
	seq      *reqseq.Guard
	sessions *mw.Sessions
	limiter  *mw.RateLimiter
}

// newApp builds the application. ctx bounds background work such as the rate limiter sweep.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = observability.NoopLogger()
	}
	bundle, err := i18n.Load(cfg.Paths.Locales, cfg.Site.DefaultLang, []string{"ko", "en"})
	if err != nil {
		return nil, fmt.Errorf("load i18n: %w", err)
	}
	rd, err := newRenderer(cfg.Paths.Templates, cfg.Server.Dev, bundle)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	client, err := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	logger.Debug("backend configured", zap.String("base_url", client.BaseURL()), zap.Duration("timeout", cfg.Backend.Timeout))

	store := cms.NewStore(cfg.Paths.Content)
	store.SetCacheDuration(pageCacheTTL)
	if cfg.Server.Dev {
		store.SetCacheDuration(0)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		i18n:   bundle,
		render: rd,
		cms:    store,
		subs:   subscription.NewService(client),
		contents: contents.NewService(client,
			contents.WithPageSize(cfg.Backend.PageSize),
			contents.WithSpeaker(cfg.Backend.TTSSpeaker),
		),
		seq:      reqseq.NewGuard(reqseq.DefaultTTL),
		sessions: mw.NewSessions(cfg.Session.SigningKey, cfg.Server.Production(), logger),
		limiter:  mw.NewRateLimiter(ctx, cfg.RateLimit.FormPerMinute, cfg.RateLimit.FormBurst),
	}
	a.limiter.OnLimit = a.rateLimited
	return a, nil
}

// routes builds the router and middleware stack.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(mw.Logger(a.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())
	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(a.cfg.Paths.Public, "assets"), a.cfg.Server.Dev))
	r.Handle("/assets/*", assets)

	// audio streams must not be compressed or cut off by the page timeout
	r.Get("/tts/audio", a.ttsAudio)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(mw.HTMX)
		r.Use(a.sessions.Middleware)
		r.Use(mw.Locale(a.i18n))
		r.Use(mw.VaryLocale)
		r.Use(a.limiter.Middleware)
		r.Use(mw.CSRF(a.sessions.Secure()))

		r.Get("/", a.home)
		r.Get("/preview/{tab}", a.previewTab)
		r.Post("/subscribe", a.subscribe)
		r.Get("/unsubscribe", a.unsubscribePage)
		r.Post("/unsubscribe", a.unsubscribe)

		r.Get("/contents", a.contentList)
		r.Get("/contents/list", a.contentListFragment)
		r.Get("/contents/{date}", a.contentDetail)

		r.Get("/tts/player", a.ttsPlayer)
		r.Get("/pages/{slug}", a.staticPage)

		r.NotFound(a.notFound)
	})
	return r
}
