package main

import (
	"net/http"

	handlersPkg "mainichinihongo.app/web/internal/handlers"
	mw "mainichinihongo.app/web/internal/middleware"
	"mainichinihongo.app/web/internal/nav"
	"mainichinihongo.app/web/internal/seo"
)

// newPage builds the layout view model shared by every page. The pending flash
// alert is consumed here so it renders exactly once.
func (a *app) newPage(r *http.Request, titleKey, descKey string) handlersPkg.PageData {
	lang := mw.Lang(r)
	site := a.i18n.T(lang, "site.name")
	title := site
	if titleKey != "" {
		title = a.i18n.T(lang, titleKey) + " | " + site
	}
	desc := a.i18n.T(lang, "site.description")
	if descKey != "" {
		desc = a.i18n.T(lang, descKey)
	}

	crumbs := nav.Breadcrumbs(r.URL.Path)
	vm := handlersPkg.PageData{
		Title:       title,
		Lang:        lang,
		SEO:         seo.NewMeta(title, desc, absoluteURL(r), "website"),
		Analytics:   handlersPkg.NewAnalytics(a.cfg.Site, a.cfg.Server.Dev),
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: crumbs,
		CSRFToken:   mw.CSRFToken(r),
		Alert:       mw.GetSession(r).TakeFlash(),
		Header: handlersPkg.Header{
			TitleKey:    "site.title",
			SubtitleKey: "site.subtitle",
		},
	}
	if len(crumbs) > 1 {
		items := make([]seo.BreadcrumbItem, 0, len(crumbs))
		for _, c := range crumbs {
			name := c.Label
			if c.LabelKey != "" {
				name = a.i18n.T(lang, c.LabelKey)
			}
			items = append(items, seo.BreadcrumbItem{Name: name, Item: origin(r) + c.Href})
		}
		vm.AddJSONLD(seo.JSON(seo.BreadcrumbList(items)))
	}
	return vm
}

// fragmentData wraps a fragment payload with the request language and token.
func (a *app) fragmentData(r *http.Request, content any) handlersPkg.PageData {
	return handlersPkg.PageData{
		Lang:      mw.Lang(r),
		Path:      r.URL.Path,
		CSRFToken: mw.CSRFToken(r),
		Content:   content,
	}
}

func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func absoluteURL(r *http.Request) string {
	return origin(r) + r.URL.Path
}

// notFound renders the localized 404 page.
func (a *app) notFound(w http.ResponseWriter, r *http.Request) {
	if mw.IsHTMX(r.Context()) {
		mw.WriteError(w, r, http.StatusNotFound, a.i18n.T(mw.Lang(r), "notfound.title"))
		return
	}
	vm := a.newPage(r, "notfound.title", "notfound.body")
	vm.SEO.NoIndex = true
	a.render.renderPage(w, r, http.StatusNotFound, "not_found", vm)
}

// rateLimited answers a throttled form post with an error alert.
func (a *app) rateLimited(w http.ResponseWriter, r *http.Request) {
	msg := a.i18n.T(mw.Lang(r), "error.rate_limited")
	if mw.IsHTMX(r.Context()) {
		vm := a.fragmentData(r, nil)
		vm.Alert = &mw.Alert{Type: mw.AlertError, Message: msg}
		mw.Retarget(w, "#alert-slot")
		a.render.renderTemplate(w, r, http.StatusTooManyRequests, "alert", vm)
		return
	}
	mw.GetSession(r).SetFlash(mw.AlertError, msg)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func redirectTarget(r *http.Request) string {
	if r.URL.Path == "/unsubscribe" {
		return "/unsubscribe"
	}
	return "/"
}
