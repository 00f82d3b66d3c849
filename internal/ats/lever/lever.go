package lever

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
	ATS     = "Lever"
	BaseURL = "https://jobs.lever.co"
)

type Connector struct {
	base string
	c    *ats.Client
}

type Option func(*Connector)

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

// Identity: Lever posting URLs are <career site>/<posting uuid>.
func (c *Connector) Identity() identity.Rule {
	return identity.Rule{Embedded: true}
}

func (c *Connector) FetchListing(ctx context.Context, run domain.Run, careerSiteURL string) ([]domain.JobLead, error) {
	body, err := c.c.Get(ctx, careerSiteURL)
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: lever parse html: %v", domain.ErrParse, err)
	}

	titles := doc.Find("a.posting-title")
	if titles.Length() == 0 {
		return nil, fmt.Errorf("%w: lever board %s has no .posting-title elements", domain.ErrParse, careerSiteURL)
	}

	leads := make([]domain.JobLead, 0, titles.Length())
	titles.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		lead := domain.JobLead{
			Title:    util.CleanText(a.Find("h5").First().Text()),
			URL:      util.CanonicalizeURL(href),
			Location: util.NormalizeLocation(a.Find(".posting-categories .location").First().Text()),
		}
		lead.Remote = workplace(a.Find(".posting-categories .workplaceTypes").First().Text())
		leads = append(leads, lead)
	})

	c.c.Logger().Debug("lever listing parsed",
		zap.String("run_id", run.ID), zap.String("url", careerSiteURL), zap.Int("leads", len(leads)))
	return leads, nil
}

// workplace reads Lever's workplace pill; "Hybrid" stays unknown.
func workplace(s string) domain.Remote {
	switch strings.ToLower(util.CleanText(s)) {
	case "remote":
		return domain.RemoteYes
	case "on-site":
		return domain.RemoteNo
	default:
		return domain.RemoteUnknown
	}
}

func (c *Connector) FetchDetail(ctx context.Context, run domain.Run, job domain.Job) (domain.Job, error) {
	body, err := c.c.Get(ctx, job.URL)
	if err != nil {
		return job, fmt.Errorf("lever get posting: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return job, fmt.Errorf("%w: lever parse posting: %v", domain.ErrParse, err)
	}

	sections := doc.Find(".section-wrapper.page-full-width div")
	if sections.Length() == 0 {
		return job, fmt.Errorf("%w: lever posting %s has no description sections", domain.ErrParse, job.URL)
	}
	parts := make([]string, 0, sections.Length())
	sections.Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	job.Description = strings.Join(parts, " ")

	if job.Location == "" {
		job.Location = util.FindLocation(doc, ".posting-categories .location", ".posting-headline .location")
	}
	return job, nil
}
