package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mainichinihongo.app/web/internal/cms"
	"mainichinihongo.app/web/internal/contents"
	handlersPkg "mainichinihongo.app/web/internal/handlers"
	mw "mainichinihongo.app/web/internal/middleware"
	"mainichinihongo.app/web/internal/observability"
	"mainichinihongo.app/web/internal/seo"
	"mainichinihongo.app/web/internal/viewstate"
)

// home renders the landing page: intro, subscribe form, subscriber count,
// sample preview, and the most recent lessons.
func (a *app) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	var (
		count  int
		recent = viewstate.Pending[[]contents.Item]()
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count = a.subs.Count(gctx)
		return nil
	})
	g.Go(func() error {
		list, err := a.contents.List(gctx, contents.ListQuery{Size: handlersPkg.RecentSize})
		if err != nil {
			logger.Warn("recent lessons unavailable", zap.Error(err))
			recent = viewstate.Failed[[]contents.Item](contents.ListFailedMessage)
			return nil
		}
		recent = viewstate.Succeeded(list.Contents)
		return nil
	})
	_ = g.Wait()

	preview, err := a.cms.Preview(ctx)
	if err != nil {
		logger.Warn("home preview unavailable", zap.Error(err))
		preview = cms.Preview{}
	}

	vm := a.newPage(r, "", "")
	vm.Header.ShowTags = true
	vm.AddJSONLD(seo.JSON(seo.WebSite(a.i18n.T(vm.Lang, "site.name"), origin(r)+"/", vm.Lang)))
	vm.Content = handlersPkg.BuildHomeData(mw.GetSession(r).TakeEmail(), count, preview, r.URL.Query().Get("tab"), recent)
	a.render.renderPage(w, r, http.StatusOK, "home", vm)
}

// previewTab renders one tab of the sample preview for htmx.
func (a *app) previewTab(w http.ResponseWriter, r *http.Request) {
	preview, err := a.cms.Preview(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Warn("home preview unavailable", zap.Error(err))
		a.notFound(w, r)
		return
	}
	tab, ok := preview.Tab(chi.URLParam(r, "tab"))
	if !ok {
		a.notFound(w, r)
		return
	}
	a.render.renderTemplate(w, r, http.StatusOK, "frag_preview_tab", a.fragmentData(r, handlersPkg.PreviewData{Tab: tab}))
}
