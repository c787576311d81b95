// Package lesson turns the backend's per-day HTML document into a display-ready record.
package lesson

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// ErrInvalidContent reports an empty or unusable content response.
var ErrInvalidContent = errors.New("lesson: content response invalid")

const ttsButtonSelector = "button.tts-button"

// ttsCall matches an inline handler invoking one function with a single quoted string argument.
var ttsCall = regexp.MustCompile(`^\s*[A-Za-z_$][\w$.]*\s*\(\s*(?:'([^']*)'|"([^"]*)")\s*\)\s*;?\s*$`)

// Span is one speakable phrase in the lesson body.
type Span struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Lesson is the structured view of one day's content.
type Lesson struct {
	Date     string `json:"date"`
	Level    string `json:"level"`
	Topic    string `json:"topic"`
	Content  string `json:"content"`
	TTSSpans []Span `json:"ttsSpans"`
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("ruby", "rt", "rp", "section", "article", "header")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[\w\- ]+$`)).Globally()
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^button$`)).OnElements("button")
	p.AllowAttrs("class", "data-text", "title").OnElements("button")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Extract parses an HTML document and pulls out the date, level, topic, and lesson body.
// Missing parts yield empty strings. Inline TTS handlers in the body are rewritten to
// data-text attributes before sanitizing.
func Extract(document string) Lesson {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return Lesson{TTSSpans: []Span{}}
	}

	var out Lesson
	info := doc.Find(".content-info strong")
	out.Date = strongText(info, 0)
	out.Level = strongText(info, 1)
	out.Topic = strongText(info, 2)

	body := doc.Find(".main-content > div").First()
	if body.Length() == 0 {
		out.TTSSpans = []Span{}
		return out
	}
	out.TTSSpans = RewriteTTS(body)
	inner, err := body.Html()
	if err != nil {
		return out
	}
	out.Content = Sanitize(inner)
	return out
}

// RewriteTTS replaces onclick="fn('TEXT')" on TTS buttons inside sel with data-text="TEXT".
// Buttons whose handler is not a single string-argument call are left unchanged.
// Every TTS button carrying data-text afterwards is returned as a Span, in document order.
func RewriteTTS(sel *goquery.Selection) []Span {
	spans := []Span{}
	sel.Find(ttsButtonSelector).Each(func(_ int, btn *goquery.Selection) {
		if handler, ok := btn.Attr("onclick"); ok {
			text, matched := speakText(handler)
			if !matched {
				return
			}
			btn.RemoveAttr("onclick")
			btn.SetAttr("data-text", text)
		}
		text, ok := btn.Attr("data-text")
		if !ok || strings.TrimSpace(text) == "" {
			return
		}
		spans = append(spans, Span{ID: "tts-" + strconv.Itoa(len(spans)+1), Text: text})
	})
	return spans
}

// Sanitize strips scripts, inline handlers, and unknown attributes from lesson markup.
func Sanitize(markup string) string {
	return policy.Sanitize(markup)
}

func speakText(handler string) (string, bool) {
	m := ttsCall.FindStringSubmatch(handler)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

func strongText(sel *goquery.Selection, i int) string {
	if i >= sel.Length() {
		return ""
	}
	return strings.TrimSpace(sel.Eq(i).Text())
}

// structured is the JSON contract {date, level, topic, bodyHtml, ttsSpans}.
type structured struct {
	Date     string `json:"date"`
	Level    string `json:"level"`
	Topic    string `json:"topic"`
	BodyHTML string `json:"bodyHtml"`
	TTSSpans []Span `json:"ttsSpans"`
}

// FromJSON builds a Lesson from the structured JSON contract. Markup in bodyHtml goes
// through the same rewrite and sanitize steps as Extract; spans supplied by the backend
// take precedence over ones found in the markup.
func FromJSON(data []byte) (Lesson, error) {
	var payload structured
	if err := json.Unmarshal(data, &payload); err != nil {
		return Lesson{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	out := Lesson{
		Date:  strings.TrimSpace(payload.Date),
		Level: strings.TrimSpace(payload.Level),
		Topic: strings.TrimSpace(payload.Topic),
	}

	wrapped := `<div id="lesson-root">` + payload.BodyHTML + `</div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(wrapped))
	if err != nil {
		return Lesson{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	root := doc.Find("#lesson-root")
	found := RewriteTTS(root)
	inner, err := root.Html()
	if err != nil {
		return Lesson{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	out.Content = Sanitize(inner)

	out.TTSSpans = found
	if len(payload.TTSSpans) > 0 {
		out.TTSSpans = make([]Span, 0, len(payload.TTSSpans))
		for i, s := range payload.TTSSpans {
			if strings.TrimSpace(s.Text) == "" {
				continue
			}
			if s.ID == "" {
				s.ID = "tts-" + strconv.Itoa(i+1)
			}
			out.TTSSpans = append(out.TTSSpans, s)
		}
	}
	return out, nil
}
