// Package workable reads apply.workable.com boards through the JSON endpoints
// the board page itself calls. The listing is paginated with a nextPage token.
package workable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobmirror/internal/ats"
	"jobmirror/internal/ats/util"
	"jobmirror/internal/domain"
	"jobmirror/internal/identity"
)

const (
	ATS     = "Workable"
	BaseURL = "https://apply.workable.com"

	// MaxPages bounds the "load more" loop.
	MaxPages = 100
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

// WithAPIURL overrides the host serving /api/v3 and /api/v2 (defaults to the board host).
func WithAPIURL(u string) Option {
	return func(c *Connector) { c.api = strings.TrimRight(u, "/") }
}

func New(opts ats.Options, mods ...Option) *Connector {
	c := &Connector{base: BaseURL, c: ats.NewClient(opts)}
	for _, m := range mods {
		m(c)
	}
	if c.api == "" {
		c.api = c.base
	}
	return c
}

func (c *Connector) ATS() string { return ATS }

func (c *Connector) NormalizeCareerSite(raw string) (string, error) {
	return ats.NormalizeWithPrefix(raw, c.base)
}

// Identity hashes the shortcode in /<account>/j/<shortcode>/.
func (c *Connector) Identity() identity.Rule {
	return identity.Rule{Marker: "/j/", TrimSlashes: true}
}

type listRequest struct {
	Query      string   `json:"query"`
	Location   []string `json:"location"`
	Department []string `json:"department"`
	Worktype   []string `json:"worktype"`
	Remote     []string `json:"remote"`
	Token      string   `json:"token,omitempty"`
}

type listResponse struct {
	Total    int        `json:"total"`
	Results  *[]listJob `json:"results"`
	NextPage string     `json:"nextPage"`
}

type location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

func (l location) String() string {
	return util.JoinNonEmpty(", ", l.City, l.Region, l.Country)
}

type listJob struct {
	Shortcode string   `json:"shortcode"`
	Title     string   `json:"title"`
	Remote    bool     `json:"remote"`
	Location  location `json:"location"`
}

type detailResponse struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements string   `json:"requirements"`
	Benefits     string   `json:"benefits"`
	Remote       bool     `json:"remote"`
	Location     location `json:"location"`
}

func (c *Connector) FetchListing(ctx context.Context, run domain.Run, careerSiteURL string) ([]domain.JobLead, error) {
	slug, err := ats.BoardSlug(careerSiteURL, c.base)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/api/v3/accounts/%s/jobs", c.api, url.PathEscape(slug))

	var leads []domain.JobLead
	seen := map[string]bool{}
	token := ""
	for page := 0; ; page++ {
		if page == MaxPages {
			return nil, fmt.Errorf("%w: workable %q exceeded %d pages", domain.ErrParse, slug, MaxPages)
		}

		payload, _ := json.Marshal(listRequest{
			Location:   []string{},
			Department: []string{},
			Worktype:   []string{},
			Remote:     []string{},
			Token:      token,
		})
		body, err := c.c.PostJSON(ctx, endpoint, payload)
		if err != nil {
			return nil, fmt.Errorf("workable list page %d: %w", page, err)
		}

		var res listResponse
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, fmt.Errorf("%w: workable decode page %d: %v", domain.ErrParse, page, err)
		}
		if res.Results == nil {
			return nil, fmt.Errorf("%w: workable page %d for %q has no results array", domain.ErrParse, page, slug)
		}

		for _, j := range *res.Results {
			if j.Shortcode == "" || seen[j.Shortcode] {
				continue
			}
			seen[j.Shortcode] = true
			lead := domain.JobLead{
				Title:    util.CleanText(j.Title),
				URL:      fmt.Sprintf("%s/%s/j/%s/", c.base, slug, j.Shortcode),
				Location: j.Location.String(),
			}
			lead.Remote = remote(j.Remote)
			leads = append(leads, lead)
		}

		if res.NextPage == "" || len(*res.Results) == 0 {
			break
		}
		token = res.NextPage
	}

	c.c.Logger().Debug("workable listing decoded",
		zap.String("run_id", run.ID), zap.String("account", slug), zap.Int("leads", len(leads)))
	if leads == nil {
		leads = []domain.JobLead{}
	}
	return leads, nil
}

func (c *Connector) FetchDetail(ctx context.Context, run domain.Run, job domain.Job) (domain.Job, error) {
	slug, err := ats.BoardSlug(job.URL, c.base)
	if err != nil {
		return job, err
	}
	shortcode, err := c.Identity().Locator(job.URL, "")
	if err != nil {
		return job, err
	}
	endpoint := fmt.Sprintf("%s/api/v2/accounts/%s/jobs/%s", c.api, url.PathEscape(slug), url.PathEscape(shortcode))

	body, err := c.c.Get(ctx, endpoint)
	if err != nil {
		return job, fmt.Errorf("workable get job: %w", err)
	}
	var d detailResponse
	if err := json.Unmarshal(body, &d); err != nil {
		return job, fmt.Errorf("%w: workable decode job: %v", domain.ErrParse, err)
	}

	desc, err := htmlText(d.Description, d.Requirements, d.Benefits)
	if err != nil {
		return job, err
	}
	if desc == "" {
		return job, fmt.Errorf("%w: workable job %s has no description", domain.ErrParse, job.URL)
	}

	job.Description = desc
	if loc := d.Location.String(); loc != "" {
		job.Location = loc
	}
	job.Remote = remote(d.Remote)
	return job, nil
}

// remote maps Workable's flag; an absent flag decodes as false and means on-site.
func remote(v bool) domain.Remote {
	if v {
		return domain.RemoteYes
	}
	return domain.RemoteNo
}

func htmlText(fragments ...string) (string, error) {
	var parts []string
	for _, f := range fragments {
		if strings.TrimSpace(f) == "" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(f)))
		if err != nil {
			return "", fmt.Errorf("%w: workable description html: %v", domain.ErrParse, err)
		}
		if t := util.CleanText(doc.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), nil
}
