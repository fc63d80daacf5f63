// Package analytics records pageviews, coarse visitor fingerprints, and
// traffic statistics for the blog.
package analytics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Page types recorded with each view.
const (
	PageTypeHome  = "home"
	PageTypePost  = "post"
	PageTypeShare = "share"
	PageTypePage  = "page"
)

// Fingerprint derives a short visitor identifier from the client IP and
// user-agent string using a rolling multiply/shift hash, rendered in base-36.
// It is deterministic and deliberately non-cryptographic: the same IP+UA pair
// always maps to the same identifier, and no attempt is made to survive IP
// changes or resist spoofing.
func Fingerprint(ip, userAgent string) string {
	var h int32
	for _, b := range []byte(ip + "|" + userAgent) {
		h = h<<5 - h + int32(b)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// PageView is a single append-only pageview event.
type PageView struct {
	ID          int64     `json:"-"`
	PostSlug    string    `json:"post_slug,omitempty"` // empty for non-post pages
	PageType    string    `json:"page_type"`
	VisitorID   string    `json:"visitor_id"`
	Referrer    string    `json:"referrer"`
	UTMSource   string    `json:"utm_source"`
	UTMMedium   string    `json:"utm_medium"`
	UTMCampaign string    `json:"utm_campaign"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stats holds aggregated analytics data for the admin dashboard.
type Stats struct {
	Period         string          `json:"period"`
	TotalViews     int             `json:"total_views"`
	UniqueVisitors int             `json:"unique_visitors"`
	TopPages       []PageStat      `json:"top_pages"`
	Sources        []DimensionStat `json:"sources"`
	Campaigns      []DimensionStat `json:"campaigns"`
	Countries      []DimensionStat `json:"countries"`
	Cities         []DimensionStat `json:"cities"`
	DailyViews     []DailyView     `json:"daily_views"`
}

// PageStat represents view counts for a single page.
type PageStat struct {
	Slug     string `json:"slug"`
	PageType string `json:"page_type"`
	Views    int    `json:"views"`
}

// DimensionStat represents a dimension breakdown (source, country, city).
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyView represents views per day.
type DailyView struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// referrerDomainRegex is pre-compiled for use in CleanReferrer.
var referrerDomainRegex = regexp.MustCompile(`^https?://(?:www\.)?([^/]+)`)

// CleanReferrer extracts a traffic source name from a referrer URL.
func CleanReferrer(ref string) string {
	if ref == "" {
		return "Direct"
	}

	refLower := strings.ToLower(ref)
	switch {
	case strings.Contains(refLower, "google."):
		return "Google"
	case strings.Contains(refLower, "bing."):
		return "Bing"
	case strings.Contains(refLower, "duckduckgo."):
		return "DuckDuckGo"
	case strings.Contains(refLower, "instagram."):
		return "Instagram"
	case strings.Contains(refLower, "linkedin."):
		return "LinkedIn"
	case strings.Contains(refLower, "twitter."), strings.Contains(refLower, "//t.co"), strings.Contains(refLower, "x.com"):
		return "Twitter"
	case strings.Contains(refLower, "facebook."):
		return "Facebook"
	case strings.Contains(refLower, "github."):
		return "GitHub"
	}

	matches := referrerDomainRegex.FindStringSubmatch(ref)
	if len(matches) > 1 {
		return matches[1]
	}
	return "Other"
}
