package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url, inLanguage string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if inLanguage != "" {
		m["inLanguage"] = inLanguage
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// LearningResource describes one daily lesson.
func LearningResource(name, url, level, topic, datePublished string) map[string]any {
	m := map[string]any{
		"@context":             "https://schema.org",
		"@type":                "LearningResource",
		"name":                 name,
		"inLanguage":           "ja",
		"learningResourceType": "lesson",
	}
	if url != "" {
		m["url"] = url
	}
	if level != "" {
		m["educationalLevel"] = "JLPT " + level
	}
	if topic != "" {
		m["about"] = topic
	}
	if datePublished != "" {
		m["datePublished"] = datePublished
	}
	return m
}
