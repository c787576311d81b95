package handlers

import (
	"html/template"

	"mainichinihongo.app/web/internal/middleware"
	"mainichinihongo.app/web/internal/nav"
	"mainichinihongo.app/web/internal/seo"
)

// PageData is the view model every template receives. Content carries the
// per-page payload; fragments read the same struct so they can translate.
type PageData struct {
	Title     string
	Lang      string
	SEO       seo.Meta
	JSONLD    []template.JS
	Analytics Analytics

	Path        string
	Nav         []nav.Link
	Breadcrumbs []nav.Crumb
	CSRFToken   string
	Alert       *middleware.Alert
	Header      Header

	Content any
}

// Header configures the page header shell.
type Header struct {
	TitleKey    string
	SubtitleKey string
	Info        *ContentInfo
	ShowTags    bool
}

// ContentInfo is the date/level/topic strip shown on lesson pages.
type ContentInfo struct {
	Date  string
	Level string
	Topic string
}

// AddJSONLD appends a pre-serialized JSON-LD document.
func (p *PageData) AddJSONLD(doc string) {
	if doc == "" {
		return
	}
	p.JSONLD = append(p.JSONLD, template.JS(doc))
}

// WithContent returns a copy of p carrying c, for rendering nested partials.
func (p PageData) WithContent(c any) PageData {
	p.Content = c
	return p
}

// SubscribeForm is the email form shared by the home and unsubscribe pages.
type SubscribeForm struct {
	ID        string
	Action    string
	Email     string
	ButtonKey string
	// OOB marks the form for an htmx out-of-band swap.
	OOB bool
}

// NewSubscribeForm returns the subscribe form prefilled with email.
func NewSubscribeForm(email string) SubscribeForm {
	return SubscribeForm{ID: "subscribe-form", Action: "/subscribe", Email: email, ButtonKey: "form.subscribe"}
}

// NewUnsubscribeForm returns the unsubscribe form prefilled with email.
func NewUnsubscribeForm(email string) SubscribeForm {
	return SubscribeForm{ID: "unsubscribe-form", Action: "/unsubscribe", Email: email, ButtonKey: "form.unsubscribe"}
}

// FormResult is the htmx response to a form post: the alert plus the form to swap out-of-band.
type FormResult struct {
	Form SubscribeForm
}

// NewFormResult marks form for an out-of-band swap.
func NewFormResult(form SubscribeForm) FormResult {
	form.OOB = true
	return FormResult{Form: form}
}

// UnsubscribeData is the unsubscribe page payload.
type UnsubscribeData struct {
	Form            SubscribeForm
	SubscriberCount int
}
