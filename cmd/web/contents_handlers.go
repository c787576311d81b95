package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mainichinihongo.app/web/internal/contents"
	"mainichinihongo.app/web/internal/datenav"
	handlersPkg "mainichinihongo.app/web/internal/handlers"
	"mainichinihongo.app/web/internal/lesson"
	mw "mainichinihongo.app/web/internal/middleware"
	"mainichinihongo.app/web/internal/observability"
	"mainichinihongo.app/web/internal/seo"
	"mainichinihongo.app/web/internal/viewstate"
)

// listQuery reads the list filters from the URL: page (zero-based), level, topic, sort.
func (a *app) listQuery(r *http.Request) contents.ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	return contents.ListQuery{
		Page:      page,
		Size:      a.contents.PageSize(),
		JLPTLevel: q.Get("level"),
		Topic:     q.Get("topic"),
		SortOrder: q.Get("sort"),
	}.Normalize()
}

func (a *app) fetchList(ctx context.Context, q contents.ListQuery) viewstate.State[contents.ListResponse] {
	list, err := a.contents.List(ctx, q)
	if err != nil {
		observability.FromContext(ctx).Warn("content list failed", zap.Error(err))
		return viewstate.Failed[contents.ListResponse](contents.ListFailedMessage)
	}
	return viewstate.Succeeded(list)
}

// contentList renders the full list page.
func (a *app) contentList(w http.ResponseWriter, r *http.Request) {
	q := a.listQuery(r)
	vm := a.newPage(r, "contents.title", "contents.subtitle")
	vm.Header.TitleKey = "contents.title"
	vm.Header.SubtitleKey = "contents.subtitle"
	vm.Content = handlersPkg.NewListData(q, a.fetchList(r.Context(), q))
	a.render.renderPage(w, r, http.StatusOK, "contents", vm)
}

// contentListFragment renders the list for htmx filter, sort, and pager requests.
// Requests overtaken by a newer seq from the same session answer 204 so htmx
// keeps the newer result on screen.
func (a *app) contentListFragment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := a.listQuery(r)
	seq, _ := strconv.ParseInt(r.URL.Query().Get("seq"), 10, 64)
	key := mw.GetSession(r).ID

	if !a.seq.Begin(key, seq) {
		a.stale(w, r, seq)
		return
	}
	state := a.fetchList(ctx, q)
	if errors.Is(ctx.Err(), context.Canceled) {
		// client aborted (hx-sync replace); nobody is listening
		return
	}
	if !a.seq.Current(key, seq) {
		a.stale(w, r, seq)
		return
	}

	data := handlersPkg.NewListData(q, state)
	mw.PushURL(w, data.PageURL("/contents", q.Page))
	a.render.renderTemplate(w, r, http.StatusOK, "frag_content_list", a.fragmentData(r, data))
}

func (a *app) stale(w http.ResponseWriter, r *http.Request, seq int64) {
	observability.StaleResponsesTotal.Inc()
	observability.FromContext(r.Context()).Debug("stale list response dropped", zap.Int64("seq", seq))
	w.WriteHeader(http.StatusNoContent)
}

// contentDetail renders one day's lesson. Hyphenated dates redirect to the
// compact form; anything unparsable is a 404.
func (a *app) contentDetail(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(chi.URLParam(r, "date"))
	if _, ok := datenav.Parse(date); !ok {
		a.notFound(w, r)
		return
	}
	if f, _ := datenav.Detect(date); f == datenav.Hyphenated {
		canonical, _ := datenav.Canonical(date)
		http.Redirect(w, r, "/contents/"+canonical, http.StatusMovedPermanently)
		return
	}

	var state viewstate.State[lesson.Lesson]
	l, err := a.contents.Lesson(r.Context(), date)
	if err != nil {
		observability.FromContext(r.Context()).Warn("lesson load failed", zap.String("date", date), zap.Error(err))
		state = viewstate.Failed[lesson.Lesson](contents.LessonFailureMessage(err))
	} else {
		state = viewstate.Succeeded(l)
	}

	vm := a.newPage(r, "lesson.title", "lesson.subtitle")
	vm.Header.TitleKey = "lesson.title"
	vm.Header.SubtitleKey = "lesson.subtitle"
	if state.IsSuccess() {
		info := &handlersPkg.ContentInfo{Date: l.Date, Level: l.Level, Topic: l.Topic}
		if info.Date == "" {
			info.Date = datenav.Display(date)
		}
		vm.Header.Info = info
		name := strings.TrimSpace(datenav.Display(date) + " " + l.Topic)
		vm.SEO.Title = name + " | " + a.i18n.T(vm.Lang, "site.name")
		vm.SEO.OG.Title = vm.SEO.Title
		vm.SEO.OG.Type = "article"
		vm.AddJSONLD(seo.JSON(seo.LearningResource(name, vm.SEO.Canonical, l.Level, l.Topic, datenav.Display(date))))
	} else {
		vm.SEO.NoIndex = true
	}
	vm.Content = handlersPkg.NewDetailData(date, state)
	a.render.renderPage(w, r, http.StatusOK, "content_detail", vm)
}
