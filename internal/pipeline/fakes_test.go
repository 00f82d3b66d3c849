package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jobmirror/internal/ats"
	"jobmirror/internal/domain"
	"jobmirror/internal/identity"
)

const boardHost = "https://boards.example.com"

// memGateway is an in-memory Gateway that counts writes.
type memGateway struct {
	mu        sync.Mutex
	companies []domain.Company
	jobs      map[string]domain.Job

	companiesErr error
	insertErr    error

	inserts, updates, deactivations int
	deactivated                     [][]string
	runs                            []domain.Run
}

func newMemGateway(companies ...domain.Company) *memGateway {
	return &memGateway{companies: companies, jobs: map[string]domain.Job{}}
}

func (g *memGateway) put(j domain.Job) { g.jobs[j.ID] = j }

func (g *memGateway) writes() int { return g.inserts + g.updates + g.deactivations }

func (g *memGateway) CompaniesByATS(_ context.Context, ats string) ([]domain.Company, error) {
	if g.companiesErr != nil {
		return nil, g.companiesErr
	}
	var out []domain.Company
	for _, c := range g.companies {
		if c.ATS == ats {
			out = append(out, c)
		}
	}
	return out, nil
}

func (g *memGateway) ActiveJobIDs(_ context.Context, companyID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for id, j := range g.jobs {
		if j.CompanyID == companyID && j.Active {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (g *memGateway) InsertJob(_ context.Context, job domain.Job) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.insertErr != nil {
		return g.insertErr
	}
	if _, ok := g.jobs[job.ID]; ok {
		return fmt.Errorf("insert %s: %w", job.ID, domain.ErrDuplicateKey)
	}
	g.inserts++
	g.jobs[job.ID] = job
	return nil
}

func (g *memGateway) UpdateJob(_ context.Context, job domain.Job) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates++
	job.ScrapeInactiveRunID = nil
	g.jobs[job.ID] = job
	return nil
}

func (g *memGateway) DeactivateJobs(_ context.Context, ids []string, runID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deactivations++
	g.deactivated = append(g.deactivated, ids)
	var n int64
	for _, id := range ids {
		j, ok := g.jobs[id]
		if !ok {
			continue
		}
		j.Active = false
		rid := runID
		j.ScrapeInactiveRunID = &rid
		g.jobs[id] = j
		n++
	}
	return n, nil
}

func (g *memGateway) RecordRun(_ context.Context, run domain.Run) error {
	g.runs = append(g.runs, run)
	return nil
}

// fakeConnector serves canned listings keyed by career site.
type fakeConnector struct {
	listings   map[string][]domain.JobLead
	listingErr map[string]error
	detailErr  error

	listingCalls, detailCalls int
	runIDs                    []string
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{listings: map[string][]domain.JobLead{}, listingErr: map[string]error{}}
}

func (f *fakeConnector) ATS() string { return "Fake" }

func (f *fakeConnector) NormalizeCareerSite(raw string) (string, error) {
	return ats.NormalizeWithPrefix(raw, boardHost)
}

func (f *fakeConnector) Identity() identity.Rule { return identity.Rule{Marker: "jobs/"} }

func (f *fakeConnector) FetchListing(_ context.Context, run domain.Run, site string) ([]domain.JobLead, error) {
	f.listingCalls++
	f.runIDs = append(f.runIDs, run.ID)
	if err := f.listingErr[site]; err != nil {
		return nil, err
	}
	return f.listings[site], nil
}

func (f *fakeConnector) FetchDetail(_ context.Context, run domain.Run, job domain.Job) (domain.Job, error) {
	f.detailCalls++
	f.runIDs = append(f.runIDs, run.ID)
	if f.detailErr != nil {
		return job, f.detailErr
	}
	job.Description = "about " + job.Title
	return job, nil
}

// listingOnly hides FetchDetail, like a connector whose listing is complete.
type listingOnly struct{ ats.Connector }

func site(slug string) string { return boardHost + "/" + slug + "/" }

func lead(slug, token string) domain.JobLead {
	return domain.JobLead{Title: "Role " + token, URL: site(slug) + "jobs/" + token}
}

func activeJob(companyID, token string) domain.Job {
	return domain.Job{
		ID:                identity.Derive(token),
		CompanyID:         companyID,
		Title:             "Role " + token,
		URL:               site("acme") + "jobs/" + token,
		Active:            true,
		ScrapeInsertRunID: "earlier-run",
	}
}

func fixedLedger(ids ...string) *Ledger {
	n := 0
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Ledger{
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			id := ids[n%len(ids)]
			n++
			return id
		},
	}
}
