package seo

// OpenGraph carries og:* tags.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
}

// Twitter carries twitter:* tags.
type Twitter struct {
	Card  string
	Site  string
	Image string
}

// Meta is the per-page head metadata rendered by the base layout.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	NoIndex     bool
	OG          OpenGraph
	Twitter     Twitter
}

// NewMeta fills the OpenGraph and Twitter blocks from title and description.
func NewMeta(title, description, canonical, ogType string) Meta {
	if ogType == "" {
		ogType = "website"
	}
	return Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Type:        ogType,
		},
		Twitter: Twitter{Card: "summary"},
	}
}
