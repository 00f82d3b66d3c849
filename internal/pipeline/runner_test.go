package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jobmirror/internal/domain"
	"jobmirror/internal/identity"
)

var acme = domain.Company{ID: "c-acme", Name: "Acme", ATS: "Fake", CareerSiteURL: boardHost + "/acme"}

func TestRun_EndToEnd(t *testing.T) {
	g := newMemGateway(acme)
	for _, tok := range []string{"101", "102", "103"} {
		g.put(activeJob(acme.ID, tok))
	}
	before102 := g.jobs[identity.Derive("102")]

	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "102"), lead("acme", "103"), lead("acme", "104")}

	r := NewRunner(g, WithLedger(fixedLedger("run-2")))
	run, err := r.Run(context.Background(), fc)
	require.NoError(t, err)

	assert.Equal(t, "run-2", run.ID)
	assert.True(t, run.Closed())
	assert.Equal(t, 1, run.Stats.Added)
	assert.Equal(t, 1, run.Stats.Deactivated)

	added := g.jobs[identity.Derive("104")]
	assert.True(t, added.Active)
	assert.True(t, added.New)
	assert.Equal(t, "run-2", added.ScrapeInsertRunID)
	assert.Equal(t, "about Role 104", added.Description)
	assert.Equal(t, acme.ID, added.CompanyID)

	gone := g.jobs[identity.Derive("101")]
	assert.False(t, gone.Active)
	require.NotNil(t, gone.ScrapeInactiveRunID)
	assert.Equal(t, "run-2", *gone.ScrapeInactiveRunID)
	assert.Equal(t, "earlier-run", gone.ScrapeInsertRunID)

	assert.Equal(t, before102, g.jobs[identity.Derive("102")])
	assert.Equal(t, 1, fc.detailCalls, "only the new posting is enriched")
	assert.Equal(t, [][]string{{identity.Derive("101")}}, g.deactivated)

	require.Len(t, g.runs, 1)
	assert.Equal(t, run, g.runs[0])
	for _, id := range fc.runIDs {
		assert.Equal(t, "run-2", id)
	}
}

func TestRun_Idempotent(t *testing.T) {
	g := newMemGateway(acme)
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "1"), lead("acme", "2")}
	r := NewRunner(g)

	_, err := r.Run(context.Background(), fc)
	require.NoError(t, err)
	require.Equal(t, 2, g.writes())

	run, err := r.Run(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, 2, g.writes(), "unchanged listing must not write")
	assert.Zero(t, run.Stats.Added)
	assert.Zero(t, run.Stats.Deactivated)
}

func TestRun_FailedListingLeavesPostingsActive(t *testing.T) {
	for name, ferr := range map[string]error{
		"timeout":   fmt.Errorf("get listing: %w", domain.ErrTimeout),
		"parse":     fmt.Errorf("%w: no openings on page", domain.ErrParse),
		"not found": fmt.Errorf("%w: gone", domain.ErrNotFound),
	} {
		t.Run(name, func(t *testing.T) {
			g := newMemGateway(acme)
			g.put(activeJob(acme.ID, "1"))
			g.put(activeJob(acme.ID, "2"))

			fc := newFakeConnector()
			fc.listingErr[site("acme")] = ferr

			run, err := NewRunner(g).Run(context.Background(), fc)
			require.NoError(t, err)
			assert.Zero(t, g.deactivations)
			assert.Zero(t, g.writes())
			assert.Equal(t, 1, run.Stats.CompaniesFailed+run.Stats.CompaniesSkipped)
			assert.True(t, g.jobs[identity.Derive("1")].Active)
		})
	}
}

func TestRun_AllPostingsRejectedLeavesPostingsActive(t *testing.T) {
	g := newMemGateway(acme)
	g.put(activeJob(acme.ID, "1"))
	g.put(activeJob(acme.ID, "2"))

	// The vendor moved postings off the jobs/ path.
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{
		{Title: "Role 1", URL: site("acme") + "careers/1"},
		{Title: "Role 2", URL: site("acme") + "careers/2"},
	}

	run, err := NewRunner(g).Run(context.Background(), fc)
	require.NoError(t, err)
	assert.Zero(t, g.deactivations)
	assert.Zero(t, g.writes())
	assert.Equal(t, 1, run.Stats.CompaniesFailed)
	assert.Equal(t, 2, run.Stats.PostingsRejected)
	assert.Zero(t, run.Stats.Deactivated)
	assert.True(t, g.jobs[identity.Derive("1")].Active)
	assert.True(t, g.jobs[identity.Derive("2")].Active)
}

func TestRun_ConfirmedEmptyListingDeactivates(t *testing.T) {
	g := newMemGateway(acme)
	g.put(activeJob(acme.ID, "1"))

	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{}

	_, err := NewRunner(g).Run(context.Background(), fc)
	require.NoError(t, err)
	assert.False(t, g.jobs[identity.Derive("1")].Active)
}

func TestRun_UpsertFallbackReactivates(t *testing.T) {
	g := newMemGateway(acme)
	old := activeJob(acme.ID, "7")
	old.Active = false
	prev := "run-1"
	old.ScrapeInactiveRunID = &prev
	g.put(old)

	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "7")}

	run, err := NewRunner(g, WithLedger(fixedLedger("run-3"))).Run(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, 1, g.updates)
	assert.Zero(t, g.inserts)
	assert.Equal(t, 1, run.Stats.Updated)

	back := g.jobs[old.ID]
	assert.True(t, back.Active)
	assert.Nil(t, back.ScrapeInactiveRunID)
	assert.Equal(t, "run-3", back.ScrapeInsertRunID)
	assert.Len(t, g.jobs, 1)
}

func TestRun_DetailFailureStillInserts(t *testing.T) {
	g := newMemGateway(acme)
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "9")}
	fc.detailErr = fmt.Errorf("%w: slow detail", domain.ErrTimeout)

	run, err := NewRunner(g).Run(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Stats.DetailFailures)

	j := g.jobs[identity.Derive("9")]
	assert.True(t, j.Active)
	assert.Equal(t, "Role 9", j.Title)
	assert.Empty(t, j.Description)
}

func TestRun_RejectsBadLocatorsAndDuplicates(t *testing.T) {
	g := newMemGateway(acme)
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{
		lead("acme", "1"),
		lead("acme", "1"),
		{Title: "Broken", URL: site("acme") + "careers/1"},
		{Title: "Empty", URL: site("acme") + "jobs/"},
	}

	run, err := NewRunner(g).Run(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, 4, run.Stats.PostingsSeen)
	assert.Equal(t, 2, run.Stats.PostingsRejected)
	assert.Equal(t, 1, g.inserts)
}

func TestRun_SkipsCustomSites(t *testing.T) {
	custom := domain.Company{ID: "c-x", Name: "X", ATS: "Fake", CareerSiteURL: "https://careers.x.com"}
	g := newMemGateway(custom, acme)
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "1")}

	run, err := NewRunner(g).Run(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Stats.Companies)
	assert.Equal(t, 1, run.Stats.CompaniesSkipped)
	assert.Equal(t, 1, fc.listingCalls)
}

func TestRun_InsertFailureIsCounted(t *testing.T) {
	g := newMemGateway(acme)
	g.insertErr = errors.New("disk full")
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "1"), lead("acme", "2")}

	run, err := NewRunner(g).Run(context.Background(), fc)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Stats.WriteFailures)
	assert.Zero(t, g.updates)
}

func TestRun_FatalConditions(t *testing.T) {
	fc := newFakeConnector()

	_, err := NewRunner(newMemGateway()).Run(context.Background(), fc)
	assert.ErrorIs(t, err, ErrNoCompanies)

	g := newMemGateway(acme)
	g.companiesErr = errors.New("connection refused")
	run, err := NewRunner(g).Run(context.Background(), fc)
	require.Error(t, err)
	assert.True(t, run.Closed())
	assert.Zero(t, fc.listingCalls)
}

func TestRun_DelayPolicyPerFetchKind(t *testing.T) {
	g := newMemGateway(acme, domain.Company{ID: "c-b", Name: "B", ATS: "Fake", CareerSiteURL: site("b")})
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "1"), lead("acme", "2")}
	fc.listings[site("b")] = []domain.JobLead{lead("b", "3")}

	var slept []time.Duration
	sleeper := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := NewRunner(g,
		WithDelayPolicy(FixedDelays(time.Second, 5*time.Second)),
		WithSleeper(sleeper),
	).Run(context.Background(), fc)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{
		time.Second, 5 * time.Second, 5 * time.Second,
		time.Second, 5 * time.Second,
	}, slept)
}

func TestRun_NoDetailDelayWithoutDetailFetcher(t *testing.T) {
	g := newMemGateway(acme)
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "1"), lead("acme", "2")}

	var slept []time.Duration
	sleeper := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	run, err := NewRunner(g,
		WithDelayPolicy(FixedDelays(time.Second, 5*time.Second)),
		WithSleeper(sleeper),
	).Run(context.Background(), listingOnly{fc})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{time.Second}, slept)
	assert.Zero(t, fc.detailCalls)
	assert.Equal(t, 2, run.Stats.Added)
	assert.Empty(t, g.jobs[identity.Derive("1")].Description, "listing fields are inserted as they are")
}

func TestRun_CancelledDuringDelay(t *testing.T) {
	g := newMemGateway(acme)
	fc := newFakeConnector()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(g, WithDelayPolicy(FixedDelays(time.Hour, time.Hour))).Run(ctx, fc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fc.listingCalls)
}

func TestRun_LogsCarryRunContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	g := newMemGateway(acme)
	fc := newFakeConnector()
	fc.listings[site("acme")] = []domain.JobLead{lead("acme", "1")}

	_, err := NewRunner(g, WithLogger(zap.New(core)), WithLedger(fixedLedger("run-9"))).Run(context.Background(), fc)
	require.NoError(t, err)

	inserted := logs.FilterMessage("posting inserted").All()
	require.Len(t, inserted, 1)
	fields := inserted[0].ContextMap()
	assert.Equal(t, "run-9", fields["run_id"])
	assert.Equal(t, "Fake", fields["ats"])
	assert.Equal(t, "Acme", fields["company"])
	assert.Equal(t, identity.Derive("1"), fields["job_id"])

	assert.Equal(t, 1, logs.FilterMessage("run finished").Len())
}

func TestFixedDelays(t *testing.T) {
	p := FixedDelays(time.Second, 5*time.Second)
	assert.Equal(t, time.Second, p(ListingFetch))
	assert.Equal(t, 5*time.Second, p(DetailFetch))
	assert.Zero(t, NoDelay(DetailFetch))
	assert.Equal(t, "detail", DetailFetch.String())
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
