package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxLabeledLocation bounds what a "Location:" label in free text may yield.
const maxLabeledLocation = 80

// FindLocation returns the first non-empty text among the vendor's location
// selectors on a posting page. Pages that only mention the location in their
// meta description are read through a "Location:" label.
func FindLocation(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}
	desc, _ := doc.Find(`meta[name="description"], meta[property="og:description"]`).First().Attr("content")
	return NormalizeLocation(labeledLocation(desc))
}

func labeledLocation(s string) string {
	low := strings.ToLower(s)
	for _, lab := range locationLabels {
		i := strings.Index(low, lab)
		if i < 0 {
			continue
		}
		rest := s[i+len(lab):]
		if j := strings.IndexAny(rest, "\n\r|·"); j >= 0 {
			rest = rest[:j]
		}
		if rest = CleanText(rest); rest != "" && len(rest) <= maxLabeledLocation {
			return rest
		}
	}
	return ""
}
