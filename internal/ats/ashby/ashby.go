// Package ashby reads jobs.ashbyhq.com boards through the public posting API,
// which returns full postings in one response.
package ashby

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"jobmirror/internal/ats"
	"jobmirror/internal/ats/util"
	"jobmirror/internal/domain"
	"jobmirror/internal/identity"
)

const (
	ATS     = "Ashby"
	BaseURL = "https://jobs.ashbyhq.com"
	APIURL  = "https://api.ashbyhq.com/posting-api/job-board"
)

type Connector struct {
	base string
	api  string
	c    *ats.Client
}

type Option func(*Connector)

func WithBaseURL(u string) Option {
	return func(c *Connector) { c.base = strings.TrimRight(u, "/") }
}

func WithAPIURL(u string) Option {
	return func(c *Connector) { c.api = strings.TrimRight(u, "/") }
}

func New(opts ats.Options, mods ...Option) *Connector {
	c := &Connector{base: BaseURL, api: APIURL, c: ats.NewClient(opts)}
	for _, m := range mods {
		m(c)
	}
	return c
}

func (c *Connector) ATS() string { return ATS }

func (c *Connector) NormalizeCareerSite(raw string) (string, error) {
	return ats.NormalizeWithPrefix(raw, c.base)
}

// Identity: posting URLs are <career site>/<posting uuid>.
func (c *Connector) Identity() identity.Rule {
	return identity.Rule{Embedded: true}
}

type boardResponse struct {
	Jobs *[]posting `json:"jobs"`
}

type posting struct {
	Title            string `json:"title"`
	Location         string `json:"location"`
	IsRemote         bool   `json:"isRemote"`
	IsListed         *bool  `json:"isListed"`
	JobURL           string `json:"jobUrl"`
	DescriptionPlain string `json:"descriptionPlain"`
	Compensation     *struct {
		CompensationTierSummary string `json:"compensationTierSummary"`
	} `json:"compensation"`
}

// FetchListing returns complete postings. An empty "jobs" array is a
// confirmed empty board; a missing one is a parse failure.
func (c *Connector) FetchListing(ctx context.Context, run domain.Run, careerSiteURL string) ([]domain.JobLead, error) {
	slug, err := ats.BoardSlug(careerSiteURL, c.base)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/%s?includeCompensation=true", c.api, url.PathEscape(slug))

	body, err := c.c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("ashby get board: %w", err)
	}

	var res boardResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: ashby decode: %v", domain.ErrParse, err)
	}
	if res.Jobs == nil {
		return nil, fmt.Errorf("%w: ashby response for %q has no jobs array", domain.ErrParse, slug)
	}

	leads := make([]domain.JobLead, 0, len(*res.Jobs))
	for _, p := range *res.Jobs {
		if p.IsListed != nil && !*p.IsListed {
			continue
		}
		lead := domain.JobLead{
			Title:       util.CleanText(p.Title),
			URL:         util.CanonicalizeURL(p.JobURL),
			Location:    util.NormalizeLocation(p.Location),
			Description: strings.TrimSpace(p.DescriptionPlain),
		}
		if p.Compensation != nil {
			lead.Salary = util.CleanText(p.Compensation.CompensationTierSummary)
		}
		lead.Remote = domain.RemoteFromLocation(lead.Location)
		if p.IsRemote {
			lead.Remote = domain.RemoteYes
		}
		leads = append(leads, lead)
	}

	c.c.Logger().Debug("ashby listing decoded",
		zap.String("run_id", run.ID), zap.String("board", slug), zap.Int("leads", len(leads)))
	return leads, nil
}
