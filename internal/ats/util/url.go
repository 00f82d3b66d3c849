package util

import (
	"net/url"
	"strings"
)

// trackingParams are query keys that vary per campaign or referral source
// while pointing at the same posting. utm_* keys are dropped as well.
var trackingParams = map[string]bool{
	"gclid":        true,
	"fbclid":       true,
	"gh_src":       true,
	"lever-origin": true,
	"lever-source": true,
	"lever-via":    true,
}

// CanonicalizeURL strips the fragment and tracking parameters so one posting
// reached from different job boards keeps one locator. Unparsable input is
// returned trimmed.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if raw == "" || err != nil {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if trackingParams[lk] || strings.HasPrefix(lk, "utm_") {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Absolute resolves href against base; it returns "" when either is unparsable.
func Absolute(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
