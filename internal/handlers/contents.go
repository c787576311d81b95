package handlers

import (
	"html/template"
	"net/url"
	"strconv"

	"mainichinihongo.app/web/internal/contents"
	"mainichinihongo.app/web/internal/datenav"
	"mainichinihongo.app/web/internal/lesson"
	"mainichinihongo.app/web/internal/viewstate"
)

// ListData is the view model of the content list page and its fragment.
type ListData struct {
	Query      contents.ListQuery
	State      viewstate.State[contents.ListResponse]
	Levels     []string
	Topics     []string
	SortOrders []string
}

// NewListData wraps a list result with the filter options.
func NewListData(q contents.ListQuery, state viewstate.State[contents.ListResponse]) ListData {
	return ListData{
		Query:      q,
		State:      state,
		Levels:     contents.Levels,
		Topics:     contents.Topics,
		SortOrders: contents.SortOrders,
	}
}

// PrevDisabled follows the backend's first flag.
func (d ListData) PrevDisabled() bool { return !d.State.IsSuccess() || d.State.Data.First }

// NextDisabled follows the backend's last flag.
func (d ListData) NextDisabled() bool { return !d.State.IsSuccess() || d.State.Data.Last }

// PageURL links base with the current filters at page.
func (d ListData) PageURL(base string, page int) string {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if d.Query.JLPTLevel != "" {
		v.Set("level", d.Query.JLPTLevel)
	}
	if d.Query.Topic != "" {
		v.Set("topic", d.Query.Topic)
	}
	if d.Query.SortOrder != "" && d.Query.SortOrder != contents.SortNewest {
		v.Set("sort", d.Query.SortOrder)
	}
	if len(v) == 0 {
		return base
	}
	return base + "?" + v.Encode()
}

// PrevPage is the zero-based index of the previous page.
func (d ListData) PrevPage() int { return max(d.State.Data.CurrentPage-1, 0) }

// NextPage is the zero-based index of the next page.
func (d ListData) NextPage() int { return d.State.Data.CurrentPage + 1 }

// DetailData is the view model of the lesson detail page.
type DetailData struct {
	Date  string
	State viewstate.State[lesson.Lesson]
	Prev  string
	Next  string
}

// NewDetailData computes the neighbouring days for date.
func NewDetailData(date string, state viewstate.State[lesson.Lesson]) DetailData {
	d := DetailData{Date: date, State: state}
	d.Prev, _ = datenav.Previous(date)
	d.Next, _ = datenav.Next(date)
	return d
}

// Body returns the lesson markup. It was sanitized when the lesson was extracted.
func (d DetailData) Body() template.HTML {
	if !d.State.IsSuccess() {
		return ""
	}
	return template.HTML(d.State.Data.Content)
}

// TTSData is the payload of the audio player fragment.
type TTSData struct {
	Text string
}
