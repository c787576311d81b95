package main

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	handlersPkg "mainichinihongo.app/web/internal/handlers"
	mw "mainichinihongo.app/web/internal/middleware"
	"mainichinihongo.app/web/internal/observability"
	"mainichinihongo.app/web/internal/subscription"
)

// subscribe handles the home page form.
func (a *app) subscribe(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	msg, err := a.subs.Subscribe(r.Context(), email)
	a.finishForm(w, r, "/", handlersPkg.NewSubscribeForm, email, msg, err, false)
}

// unsubscribePage renders the unsubscribe form with the subscriber count.
func (a *app) unsubscribePage(w http.ResponseWriter, r *http.Request) {
	vm := a.newPage(r, "unsubscribe.title", "unsubscribe.body")
	vm.Header.TitleKey = "unsubscribe.title"
	vm.Header.SubtitleKey = "unsubscribe.subtitle"
	vm.Content = handlersPkg.UnsubscribeData{
		Form:            handlersPkg.NewUnsubscribeForm(mw.GetSession(r).TakeEmail()),
		SubscriberCount: a.subs.Count(r.Context()),
	}
	a.render.renderPage(w, r, http.StatusOK, "unsubscribe", vm)
}

// unsubscribe handles the unsubscribe form.
func (a *app) unsubscribe(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	msg, err := a.subs.Unsubscribe(r.Context(), email)
	a.finishForm(w, r, "/unsubscribe", handlersPkg.NewUnsubscribeForm, email, msg, err, true)
}

// finishForm reports the outcome of a form post. Plain posts get a flash and a
// 303 back to the form page; htmx posts get the alert plus the refreshed form.
// The email is cleared on success and kept on failure.
func (a *app) finishForm(
	w http.ResponseWriter,
	r *http.Request,
	back string,
	newForm func(string) handlersPkg.SubscribeForm,
	email, msg string,
	err error,
	unsubscribe bool,
) {
	logger := observability.FromContext(r.Context())
	alert := &mw.Alert{Type: mw.AlertSuccess, Message: msg}
	keep := ""
	if err != nil {
		logger.Info("subscription form failed",
			zap.String("email", observability.SanitizeEmail(email)),
			zap.Bool("unsubscribe", unsubscribe),
			zap.Error(err),
		)
		alert = &mw.Alert{Type: mw.AlertError, Message: subscription.FailureMessage(err, unsubscribe)}
		keep = email
	}

	if mw.IsHTMX(r.Context()) {
		vm := a.fragmentData(r, handlersPkg.NewFormResult(newForm(keep)))
		vm.Alert = alert
		a.render.renderTemplate(w, r, http.StatusOK, "frag_form_result", vm)
		return
	}

	s := mw.GetSession(r)
	s.SetFlash(alert.Type, alert.Message)
	s.KeepEmail(keep)
	http.Redirect(w, r, back, http.StatusSeeOther)
}
