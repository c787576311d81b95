package lesson

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const fixture = `<!DOCTYPE html>
<html><body>
<div class="content-info">
  <span>📅 <strong> 2025-06-22 </strong></span>
  <span>📚 <strong>N3</strong> 레벨</span>
  <span>🎯 <strong>인사말</strong> 주제</span>
</div>
<div class="main-content"><div><p>Hello</p></div></div>
</body></html>`

func TestExtractFields(t *testing.T) {
	got := Extract(fixture)
	require.Equal(t, "2025-06-22", got.Date)
	require.Equal(t, "N3", got.Level)
	require.Equal(t, "인사말", got.Topic)
	require.Equal(t, "<p>Hello</p>", got.Content)
	require.Empty(t, got.TTSSpans)
}

func TestExtractMissingPartsYieldEmptyStrings(t *testing.T) {
	got := Extract(`<div class="content-info"><strong>2025-06-22</strong></div>`)
	require.Equal(t, "2025-06-22", got.Date)
	require.Equal(t, "", got.Level)
	require.Equal(t, "", got.Topic)
	require.Equal(t, "", got.Content)

	got = Extract("")
	require.Equal(t, Lesson{TTSSpans: []Span{}}, got)

	got = Extract("<<<not html")
	require.Equal(t, "", got.Date)
	require.Equal(t, "", got.Content)
}

func TestExtractUsesFirstBodyContainer(t *testing.T) {
	got := Extract(`<div class="main-content"><div><p>first</p></div><div><p>second</p></div></div>`)
	require.Equal(t, "<p>first</p>", got.Content)
}

func TestExtractRewritesTTSButtons(t *testing.T) {
	doc := `<div class="main-content"><div><p>人</p><button class="tts-button" onclick="playTTS('こんにちは')">🔊</button></div></div>`
	got := Extract(doc)
	require.Contains(t, got.Content, `<button class="tts-button" data-text="こんにちは">🔊</button>`)
	require.NotContains(t, got.Content, "onclick")
	require.Equal(t, []Span{{ID: "tts-1", Text: "こんにちは"}}, got.TTSSpans)
}

func TestRewriteTTS(t *testing.T) {
	markup := `<div id="root">
<button class="tts-button" onclick="playTTS('おはよう')">🔊</button>
<button class="tts-button" onclick='speak("ありがとう");'>🔈</button>
<button class="tts-button" onclick="playTTS(someVar)">🔇</button>
<button class="tts-button" onclick="playTTS('a', 'b')">🔇</button>
<button class="other" onclick="playTTS('無視')">x</button>
</div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	root := doc.Find("#root")

	spans := RewriteTTS(root)
	require.Equal(t, []Span{{ID: "tts-1", Text: "おはよう"}, {ID: "tts-2", Text: "ありがとう"}}, spans)

	html, err := root.Html()
	require.NoError(t, err)
	require.Contains(t, html, `<button class="tts-button" data-text="おはよう">🔊</button>`)
	require.Contains(t, html, `<button class="tts-button" data-text="ありがとう">🔈</button>`)

	buttons := root.Find("button")
	require.Equal(t, 5, buttons.Length())
	// unmatched handlers are left in place
	_, ok := buttons.Eq(2).Attr("onclick")
	require.True(t, ok)
	_, ok = buttons.Eq(3).Attr("onclick")
	require.True(t, ok)
	_, ok = buttons.Eq(4).Attr("onclick")
	require.True(t, ok)
}

func TestSanitizeStripsScriptsAndHandlers(t *testing.T) {
	out := Sanitize(`<p class="word" onmouseover="x()">語</p><script>alert(1)</script><button class="tts-button" onclick="playTTS(x)" data-text="猫">🔊</button>`)
	require.NotContains(t, out, "script")
	require.NotContains(t, out, "onmouseover")
	require.NotContains(t, out, "onclick")
	require.Contains(t, out, `<p class="word">語</p>`)
	require.Contains(t, out, `data-text="猫"`)
}

func TestFromJSON(t *testing.T) {
	data := []byte(`{"date":"2025-06-22","level":"N3","topic":"인사말","bodyHtml":"<p>Hello</p><button class=\"tts-button\" onclick=\"playTTS('はい')\">🔊</button>"}`)
	got, err := FromJSON(data)
	require.NoError(t, err)
	require.Equal(t, "2025-06-22", got.Date)
	require.Equal(t, "N3", got.Level)
	require.Equal(t, "인사말", got.Topic)
	require.Equal(t, `<p>Hello</p><button class="tts-button" data-text="はい">🔊</button>`, got.Content)
	require.Equal(t, []Span{{ID: "tts-1", Text: "はい"}}, got.TTSSpans)
}

func TestFromJSONPrefersBackendSpans(t *testing.T) {
	data := []byte(`{"bodyHtml":"<p>x</p>","ttsSpans":[{"id":"a","text":"猫"},{"text":"犬"},{"text":" "}]}`)
	got, err := FromJSON(data)
	require.NoError(t, err)
	require.Equal(t, []Span{{ID: "a", Text: "猫"}, {ID: "tts-2", Text: "犬"}}, got.TTSSpans)
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte(`{`))
	require.True(t, errors.Is(err, ErrInvalidContent))
}
