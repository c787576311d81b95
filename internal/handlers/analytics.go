package handlers

import "mainichinihongo.app/web/internal/config"

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	GA4MeasurementID string // e.g. G-XXXXXXXXXX
	Debug            bool
}

// NewAnalytics builds Analytics from site configuration. Debug mirrors dev mode.
func NewAnalytics(site config.SiteConfig, dev bool) Analytics {
	return Analytics{
		GA4MeasurementID: site.GA4MeasurementID,
		Debug:            dev,
	}
}

// Enabled reports whether any tag should be emitted.
func (a Analytics) Enabled() bool { return a.GA4MeasurementID != "" }
