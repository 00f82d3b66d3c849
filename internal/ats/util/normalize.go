package util

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// locationLabels prefix location text on posting pages. Longest first.
var locationLabels = []string{"job location:", "locations:", "location:"}

// NormalizeLocation drops a leading label and repeated comma parts
// ("Location: Chicago, IL, chicago" -> "Chicago, IL").
func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	low := strings.ToLower(loc)
	for _, lab := range locationLabels {
		if strings.HasPrefix(low, lab) {
			loc = strings.TrimSpace(loc[len(lab):])
			break
		}
	}

	seen := map[string]bool{}
	var out []string
	for _, p := range strings.Split(loc, ",") {
		p = strings.TrimSpace(p)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// JoinNonEmpty joins the non-blank parts, e.g. city, region, country.
func JoinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = CleanText(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
