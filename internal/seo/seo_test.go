package seo

import (
	"strings"
	"testing"
)

func TestLearningResource(t *testing.T) {
	out := JSON(LearningResource("2025-06-22 인사말", "https://example.com/contents/20250622", "N3", "인사말", "2025-06-22"))
	for _, want := range []string{`"@type":"LearningResource"`, `"educationalLevel":"JLPT N3"`, `"datePublished":"2025-06-22"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestNewMetaDefaults(t *testing.T) {
	m := NewMeta("t", "d", "/c", "")
	if m.OG.Type != "website" || m.OG.Title != "t" || m.Twitter.Card != "summary" {
		t.Fatalf("unexpected meta: %+v", m)
	}
}

func TestBreadcrumbListPositions(t *testing.T) {
	out := JSON(BreadcrumbList([]BreadcrumbItem{
		{Name: "홈", Item: "https://example.com/"},
		{Name: "레슨", Item: "https://example.com/contents"},
	}))
	for _, want := range []string{`"@type":"BreadcrumbList"`, `"position":1`, `"position":2`, `"name":"레슨"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
