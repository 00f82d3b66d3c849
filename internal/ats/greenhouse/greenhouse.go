package greenhouse

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobmirror/internal/ats"
	"jobmirror/internal/ats/util"
	"jobmirror/internal/domain"
	"jobmirror/internal/identity"
)

const (
	ATS     = "Greenhouse"
	BaseURL = "https://boards.greenhouse.io"
)

type Connector struct {
	base string
	c    *ats.Client
}

type Option func(*Connector)

// WithBaseURL points the connector at another board host (tests).
func WithBaseURL(u string) Option {
	return func(c *Connector) { c.base = strings.TrimRight(u, "/") }
}

func New(opts ats.Options, mods ...Option) *Connector {
	c := &Connector{base: BaseURL, c: ats.NewClient(opts)}
	for _, m := range mods {
		m(c)
	}
	return c
}

func (c *Connector) ATS() string { return ATS }

func (c *Connector) NormalizeCareerSite(raw string) (string, error) {
	return ats.NormalizeWithPrefix(raw, c.base)
}

// Identity hashes whatever follows "jobs/", e.g. the 4567890 in
// /acme/jobs/4567890.
func (c *Connector) Identity() identity.Rule {
	return identity.Rule{Marker: "/jobs/"}
}

func (c *Connector) FetchListing(ctx context.Context, run domain.Run, careerSiteURL string) ([]domain.JobLead, error) {
	body, err := c.c.Get(ctx, careerSiteURL)
	if err != nil {
		return nil, fmt.Errorf("greenhouse get board: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: greenhouse parse board html: %v", domain.ErrParse, err)
	}

	openings := doc.Find(".opening")
	if openings.Length() == 0 {
		return nil, fmt.Errorf("%w: greenhouse board %s has no .opening elements", domain.ErrParse, careerSiteURL)
	}

	leads := make([]domain.JobLead, 0, openings.Length())
	openings.Each(func(_ int, s *goquery.Selection) {
		a := s.Find("a").First()
		href, _ := a.Attr("href")
		loc := util.NormalizeLocation(s.Find(".location").First().Text())
		leads = append(leads, domain.JobLead{
			Title:    util.CleanText(a.Text()),
			URL:      util.CanonicalizeURL(util.Absolute(c.base+"/", href)),
			Location: loc,
			Remote:   domain.RemoteFromLocation(loc),
		})
	})

	c.c.Logger().Debug("greenhouse listing parsed",
		zap.String("run_id", run.ID), zap.String("url", careerSiteURL), zap.Int("leads", len(leads)))
	return leads, nil
}

func (c *Connector) FetchDetail(ctx context.Context, run domain.Run, job domain.Job) (domain.Job, error) {
	body, err := c.c.Get(ctx, job.URL)
	if err != nil {
		return job, fmt.Errorf("greenhouse get job page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return job, fmt.Errorf("%w: greenhouse parse job html: %v", domain.ErrParse, err)
	}

	content := doc.Find("#content").First()
	if content.Length() == 0 {
		return job, fmt.Errorf("%w: greenhouse job %s has no #content", domain.ErrParse, job.URL)
	}
	job.Description = strings.TrimSpace(content.Text())

	if job.Location == "" {
		if loc := util.FindLocation(doc, ".job__location", "#header .location"); loc != "" {
			job.Location = loc
			if job.Remote == domain.RemoteUnknown {
				job.Remote = domain.RemoteFromLocation(loc)
			}
		}
	}
	return job, nil
}
