package handlers

import (
	"mainichinihongo.app/web/internal/cms"
	"mainichinihongo.app/web/internal/contents"
	"mainichinihongo.app/web/internal/viewstate"
)

// RecentSize is the number of lessons listed on the home page.
const RecentSize = 3

// HomeData is the view model for the home page.
type HomeData struct {
	Form            SubscribeForm
	SubscriberCount int
	Tabs            []cms.PreviewTab
	ActiveTab       cms.PreviewTab
	Recent          viewstate.State[[]contents.Item]
}

// ShowRecent hides the recent section when the fetch failed or came back empty.
func (h HomeData) ShowRecent() bool {
	return h.Recent.IsSuccess() && len(h.Recent.Data) > 0
}

// BuildHomeData assembles the home view model. A missing preview leaves the tabs empty.
func BuildHomeData(email string, count int, preview cms.Preview, tab string, recent viewstate.State[[]contents.Item]) HomeData {
	data := HomeData{
		Form:            NewSubscribeForm(email),
		SubscriberCount: count,
		Tabs:            preview.Tabs,
		Recent:          recent,
	}
	if active, ok := preview.Tab(tab); ok {
		data.ActiveTab = active
	} else if first, ok := preview.Tab(""); ok {
		data.ActiveTab = first
	}
	return data
}

// Panel is the payload of the active preview tab.
func (h HomeData) Panel() PreviewData { return PreviewData{Tab: h.ActiveTab} }

// PreviewData is the payload of the preview tab fragment.
type PreviewData struct {
	Tab cms.PreviewTab
}
