package nav

import (
	"path"
	"strings"

	"mainichinihongo.app/web/internal/datenav"
)

// Section is a top-level area of the site reachable from the header.
type Section struct {
	Path     string
	LabelKey string
}

// Link is a header entry ready for templates.
type Link struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb is one breadcrumb step. Templates translate LabelKey when set and
// print Label otherwise.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Sections lists the header navigation in display order.
var Sections = []Section{
	{Path: "/", LabelKey: "nav.home"},
	{Path: "/contents", LabelKey: "nav.contents"},
	{Path: "/unsubscribe", LabelKey: "nav.unsubscribe"},
}

// pagesPrefix holds markdown pages, which have no index of their own.
const pagesPrefix = "/pages/"

// Build returns the header links with the section owning currentPath marked active.
func Build(currentPath string) []Link {
	current := sectionOf(currentPath)
	links := make([]Link, len(Sections))
	for i, s := range Sections {
		links[i] = Link{Href: s.Path, LabelKey: s.LabelKey, Active: s.Path == current}
	}
	return links
}

// sectionOf maps a request path to the section path that owns it, or "".
func sectionOf(p string) string {
	p = clean(p)
	if p == "/" {
		return "/"
	}
	for _, s := range Sections[1:] {
		if p == s.Path || strings.HasPrefix(p, s.Path+"/") {
			return s.Path
		}
	}
	return ""
}

// Breadcrumbs returns the trail for currentPath, starting at home.
// Lesson dates are shown hyphenated and page slugs as words.
func Breadcrumbs(currentPath string) []Crumb {
	p := clean(currentPath)
	home := Crumb{Href: "/", LabelKey: "nav.home", Active: p == "/"}
	if p == "/" {
		return []Crumb{home}
	}

	if slug, ok := strings.CutPrefix(p, pagesPrefix); ok && slug != "" && !strings.Contains(slug, "/") {
		return []Crumb{home, {Href: p, Label: wordsFromSlug(slug), Active: true}}
	}

	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	crumbs := []Crumb{home}
	href := ""
	for i, seg := range segments {
		href += "/" + seg
		c := Crumb{Href: href, Active: i == len(segments)-1}
		switch {
		case i == 0 && sectionOf(href) == href:
			c.LabelKey = labelKey(href)
		case i == 1 && segments[0] == "contents":
			c.Label = datenav.Display(seg)
		default:
			c.Label = wordsFromSlug(seg)
		}
		crumbs = append(crumbs, c)
	}
	return crumbs
}

func labelKey(sectionPath string) string {
	for _, s := range Sections {
		if s.Path == sectionPath {
			return s.LabelKey
		}
	}
	return ""
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}

// wordsFromSlug turns "privacy-policy" into "Privacy policy".
func wordsFromSlug(slug string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
