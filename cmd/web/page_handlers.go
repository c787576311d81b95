package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mainichinihongo.app/web/internal/cms"
	mw "mainichinihongo.app/web/internal/middleware"
	"mainichinihongo.app/web/internal/observability"
)

// staticPage renders a markdown page such as /pages/about.
func (a *app) staticPage(w http.ResponseWriter, r *http.Request) {
	page, err := a.cms.Page(r.Context(), chi.URLParam(r, "slug"), mw.Lang(r))
	if err != nil {
		if !errors.Is(err, cms.ErrNotFound) {
			observability.FromContext(r.Context()).Error("static page failed", zap.Error(err))
		}
		a.notFound(w, r)
		return
	}

	vm := a.newPage(r, "", "")
	title := page.SEO.Title
	if title == "" {
		title = page.Title
	}
	vm.Title = title + " | " + a.i18n.T(vm.Lang, "site.name")
	vm.SEO.Title = vm.Title
	vm.SEO.OG.Title = vm.Title
	desc := page.SEO.Description
	if desc == "" {
		desc = page.Summary
	}
	if desc != "" {
		vm.SEO.Description = desc
		vm.SEO.OG.Description = desc
	}
	vm.Content = page
	a.render.renderPage(w, r, http.StatusOK, "page", vm)
}
