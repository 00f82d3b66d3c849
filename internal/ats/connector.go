// Package ats defines what the pipeline needs from a job-board vendor and
// the HTTP plumbing the vendor connectors share.
package ats

import (
	"context"
	"fmt"
	"strings"

	"jobmirror/internal/domain"
	"jobmirror/internal/identity"
)

// Connector reads one vendor's career sites.
//
// FetchListing returns the complete, finite listing for a career site. A nil
// error with zero leads means the vendor confirmed there are no openings.
// Anything the connector cannot confirm is an error: domain.ErrTimeout,
// domain.ErrParse, or domain.ErrNotFound for an explicit 404.
type Connector interface {
	ATS() string
	NormalizeCareerSite(raw string) (string, error)
	Identity() identity.Rule
	FetchListing(ctx context.Context, run domain.Run, careerSiteURL string) ([]domain.JobLead, error)
}

// DetailFetcher is implemented by connectors whose listing leaves fields for
// a per-posting page to fill in. Callers treat its failure as soft and keep
// the fields they already have. A connector without it has nothing to add
// after the listing, so no detail request is made or paced.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, run domain.Run, job domain.Job) (domain.Job, error)
}

// NormalizeWithPrefix appends the trailing "/" a vendor's board URLs need,
// rejecting URLs that are not on the vendor's host.
func NormalizeWithPrefix(raw, prefix string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" || !strings.HasPrefix(u, prefix) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedSite, raw)
	}
	return EnsureTrailingSlash(u), nil
}

func EnsureTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

// BoardSlug returns the first path segment after prefix, e.g. "acme" for
// https://jobs.lever.co/acme/.
func BoardSlug(careerSiteURL, prefix string) (string, error) {
	rest := strings.TrimPrefix(careerSiteURL, prefix)
	rest = strings.TrimPrefix(rest, "/")
	slug, _, _ := strings.Cut(rest, "/")
	slug, _, _ = strings.Cut(slug, "?")
	if slug == "" {
		return "", fmt.Errorf("%w: no board slug in %q", domain.ErrUnsupportedSite, careerSiteURL)
	}
	return slug, nil
}
