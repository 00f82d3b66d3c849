// Package jazzhr scrapes <company>.applytojob.com boards with colly.
// Every fetch builds its own collector and drops it when the call returns.
package jazzhr

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"jobmirror/internal/ats"
	"jobmirror/internal/ats/util"
	"jobmirror/internal/domain"
	"jobmirror/internal/identity"
)

const ATS = "JazzHR"

// SitePattern matches the standard hosted board; anything else is a custom site.
var SitePattern = regexp.MustCompile(`^https://[0-9a-z]{1,256}\.applytojob\.com/apply`)

type Connector struct {
	pattern *regexp.Regexp
	c       *ats.Client
}

type Option func(*Connector)

func WithSitePattern(re *regexp.Regexp) Option {
	return func(c *Connector) { c.pattern = re }
}

func New(opts ats.Options, mods ...Option) *Connector {
	c := &Connector{pattern: SitePattern, c: ats.NewClient(opts)}
	for _, m := range mods {
		m(c)
	}
	return c
}

func (c *Connector) ATS() string { return ATS }

func (c *Connector) NormalizeCareerSite(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if !c.pattern.MatchString(u) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedSite, raw)
	}
	return ats.EnsureTrailingSlash(u), nil
}

// Identity hashes the token in /apply/<token>/<title-slug>; the slug changes
// whenever the title is edited, the token does not.
func (c *Connector) Identity() identity.Rule {
	return identity.Rule{Marker: "/apply/", FirstSegment: true}
}

func (c *Connector) collector(ctx context.Context) *colly.Collector {
	col := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(c.c.UserAgent()),
	)
	col.SetRequestTimeout(c.c.Timeout())
	return col
}

// visit runs one collector against rawURL and maps colly's failure onto the
// domain error kinds.
func (c *Connector) visit(ctx context.Context, col *colly.Collector, rawURL string) error {
	if lim := c.c.Limiter(); lim != nil {
		if err := lim.WaitURL(ctx, rawURL); err != nil {
			return ats.Classify(err)
		}
	}

	status := 0
	col.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	err := col.Visit(rawURL)
	if err == nil {
		return nil
	}
	if status != 0 && status != http.StatusOK {
		if serr := ats.StatusError(status, rawURL); serr != nil {
			return serr
		}
	}
	return ats.Classify(err)
}

func (c *Connector) FetchListing(ctx context.Context, run domain.Run, careerSiteURL string) ([]domain.JobLead, error) {
	col := c.collector(ctx)

	var leads []domain.JobLead
	col.OnHTML("li.list-group-item", func(e *colly.HTMLElement) {
		a := e.DOM.Find("a").First()
		href, _ := a.Attr("href")
		lead := domain.JobLead{
			Title: util.CleanText(a.Text()),
			URL:   util.CanonicalizeURL(e.Request.AbsoluteURL(href)),
		}
		e.ForEach("li", func(_ int, li *colly.HTMLElement) {
			if lead.Location == "" && li.DOM.Find("i.fa-map-marker").Length() > 0 {
				lead.Location = util.NormalizeLocation(li.Text)
			}
		})
		lead.Remote = domain.RemoteFromLocation(lead.Location)
		leads = append(leads, lead)
	})

	if err := c.visit(ctx, col, careerSiteURL); err != nil {
		return nil, fmt.Errorf("jazzhr get board: %w", err)
	}
	if len(leads) == 0 {
		return nil, fmt.Errorf("%w: jazzhr board %s has no list-group-item postings", domain.ErrParse, careerSiteURL)
	}

	c.c.Logger().Debug("jazzhr listing parsed",
		zap.String("run_id", run.ID), zap.String("url", careerSiteURL), zap.Int("leads", len(leads)))
	return leads, nil
}

func (c *Connector) FetchDetail(ctx context.Context, run domain.Run, job domain.Job) (domain.Job, error) {
	col := c.collector(ctx)

	found := false
	var desc string
	col.OnHTML("#job-description", func(e *colly.HTMLElement) {
		found = true
		desc = strings.TrimSpace(e.Text)
	})

	if err := c.visit(ctx, col, job.URL); err != nil {
		return job, fmt.Errorf("jazzhr get job page: %w", err)
	}
	if !found {
		return job, fmt.Errorf("%w: jazzhr job %s has no #job-description", domain.ErrParse, job.URL)
	}
	job.Description = desc
	return job, nil
}
