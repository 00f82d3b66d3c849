// Package pipeline mirrors one ATS's career sites into the store: list,
// derive ids, diff against what is active, then insert new postings and
// deactivate vanished ones. Companies and postings are handled one at a
// time so the delay policy is the only thing deciding request spacing.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"jobmirror/internal/ats"
	"jobmirror/internal/domain"
	"jobmirror/internal/reconcile"
)

// ErrNoCompanies ends a run whose ATS label matches nothing in the store.
var ErrNoCompanies = errors.New("no companies for ats")

type Runner struct {
	store  Gateway
	ledger *Ledger
	delay  DelayPolicy
	sleep  Sleeper
	log    *zap.Logger
}

type Option func(*Runner)

func WithDelayPolicy(p DelayPolicy) Option { return func(r *Runner) { r.delay = p } }
func WithSleeper(s Sleeper) Option { return func(r *Runner) { r.sleep = s } }
func WithLedger(l *Ledger) Option { return func(r *Runner) { r.ledger = l } }
func WithLogger(l *zap.Logger) Option { return func(r *Runner) { r.log = l } }

func NewRunner(store Gateway, opts ...Option) *Runner {
	r := &Runner{
		store:  store,
		ledger: NewLedger(),
		delay:  NoDelay,
		sleep:  Sleep,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run processes every company registered for the connector's ATS. Per-company
// and per-posting failures are logged and counted, never returned. The error
// is non-nil only when the run could not proceed at all: the store failed to
// list companies, there were none, or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, c ats.Connector) (domain.Run, error) {
	run := r.ledger.Begin(c.ATS())
	log := r.log.With(zap.String("run_id", run.ID), zap.String("ats", run.ATS))
	log.Info("run started", zap.String("started_at", run.StartedAt.Format(domain.TimeLayout)))

	run, err := r.run(ctx, c, run, log)
	run = r.ledger.End(run)

	if rec, ok := r.store.(RunRecorder); ok {
		if rerr := rec.RecordRun(context.WithoutCancel(ctx), run); rerr != nil {
			log.Warn("record run failed", zap.Error(rerr))
		}
	}

	s := run.Stats
	log.Info("run finished",
		zap.String("ended_at", run.EndedAt.Format(domain.TimeLayout)),
		zap.Int("companies", s.Companies),
		zap.Int("companies_skipped", s.CompaniesSkipped),
		zap.Int("companies_failed", s.CompaniesFailed),
		zap.Int("postings_seen", s.PostingsSeen),
		zap.Int("postings_rejected", s.PostingsRejected),
		zap.Int("added", s.Added),
		zap.Int("updated", s.Updated),
		zap.Int("deactivated", s.Deactivated),
		zap.Int("detail_failures", s.DetailFailures),
		zap.Int("write_failures", s.WriteFailures),
	)
	return run, err
}

func (r *Runner) run(ctx context.Context, c ats.Connector, run domain.Run, log *zap.Logger) (domain.Run, error) {
	companies, err := r.store.CompaniesByATS(ctx, run.ATS)
	if err != nil {
		log.Error("list companies failed", zap.Error(err))
		return run, fmt.Errorf("list companies for %s: %w", run.ATS, err)
	}
	if len(companies) == 0 {
		log.Error("no companies registered")
		return run, fmt.Errorf("%w %s", ErrNoCompanies, run.ATS)
	}

	for _, co := range companies {
		run.Stats.Companies++
		if err := r.company(ctx, c, &run, co, log.With(zap.String("company", co.Name))); err != nil {
			return run, err
		}
	}
	return run, nil
}

// company handles one career site. The returned error is only ever a
// cancelled context; everything else is logged and counted here.
func (r *Runner) company(ctx context.Context, c ats.Connector, run *domain.Run, co domain.Company, log *zap.Logger) error {
	site, err := c.NormalizeCareerSite(co.CareerSiteURL)
	if err != nil {
		log.Info("custom career site, skipping", zap.String("career_site_url", co.CareerSiteURL))
		run.Stats.CompaniesSkipped++
		return nil
	}

	if err := r.wait(ctx, ListingFetch); err != nil {
		return err
	}
	leads, err := c.FetchListing(ctx, *run, site)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, domain.ErrNotFound):
		// Absence is not proof the postings are gone; leave them as they are.
		log.Info("career site not found, leaving postings untouched", zap.String("career_site_url", site), zap.Error(err))
		run.Stats.CompaniesSkipped++
		return nil
	default:
		log.Warn("listing fetch failed, leaving postings untouched", zap.String("career_site_url", site), zap.Error(err))
		run.Stats.CompaniesFailed++
		return nil
	}

	current, byID := r.identify(c.Identity().Derive, run, co, site, leads, log)
	if len(leads) > 0 && len(current) == 0 {
		// A non-empty listing with no usable locators is a vendor URL change,
		// not a board that emptied out.
		log.Warn("every posting rejected, leaving postings untouched", zap.Int("listed", len(leads)))
		run.Stats.CompaniesFailed++
		return nil
	}

	activeIDs, err := r.store.ActiveJobIDs(ctx, co.ID)
	if err != nil {
		log.Warn("load active postings failed", zap.Error(err))
		run.Stats.CompaniesFailed++
		return nil
	}
	diff := reconcile.Diff(current, reconcile.NewSet(activeIDs...))
	log.Info("listing reconciled",
		zap.Int("listed", len(current)),
		zap.Int("active", len(activeIDs)),
		zap.Int("add", len(diff.Add)),
		zap.Int("remove", len(diff.Remove)),
	)
	if diff.Empty() {
		return nil
	}

	for _, id := range diff.Add.Sorted() {
		if err := r.add(ctx, c, run, byID[id], log.With(zap.String("job_id", id))); err != nil {
			return err
		}
	}

	if len(diff.Remove) > 0 {
		ids := diff.Remove.Sorted()
		n, err := r.store.DeactivateJobs(ctx, ids, run.ID)
		if err != nil {
			log.Warn("deactivate failed", zap.Strings("job_ids", ids), zap.Error(err))
			run.Stats.WriteFailures++
			return nil
		}
		log.Info("postings deactivated", zap.Strings("job_ids", ids), zap.Int64("rows", n))
		run.Stats.Deactivated += len(ids)
	}
	return nil
}

// identify derives ids for a listing, dropping postings whose URL does not
// yield one and collapsing repeats.
func (r *Runner) identify(
	derive func(postingURL, careerSiteURL string) (string, error),
	run *domain.Run, co domain.Company, site string, leads []domain.JobLead, log *zap.Logger,
) (reconcile.Set, map[string]domain.Job) {
	current := reconcile.Set{}
	byID := make(map[string]domain.Job, len(leads))
	for _, lead := range leads {
		run.Stats.PostingsSeen++
		id, err := derive(lead.URL, site)
		if err != nil {
			log.Warn("posting rejected", zap.String("url", lead.URL), zap.Error(err))
			run.Stats.PostingsRejected++
			continue
		}
		if current.Has(id) {
			continue
		}
		current.Add(id)
		byID[id] = domain.JobFromLead(id, co.ID, lead)
	}
	return current, byID
}

func (r *Runner) add(ctx context.Context, c ats.Connector, run *domain.Run, job domain.Job, log *zap.Logger) error {
	if df, ok := c.(ats.DetailFetcher); ok {
		if err := r.wait(ctx, DetailFetch); err != nil {
			return err
		}
		detailed, err := df.FetchDetail(ctx, *run, job)
		switch {
		case err == nil:
			job = detailed
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			log.Warn("detail fetch failed, keeping listing fields", zap.String("url", job.URL), zap.Error(err))
			run.Stats.DetailFailures++
		}
	}

	job.Active = true
	job.New = true
	job.ScrapeInsertRunID = run.ID
	job.ScrapeInactiveRunID = nil

	err := r.store.InsertJob(ctx, job)
	if err == nil {
		log.Info("posting inserted", zap.String("title", job.Title), zap.String("url", job.URL))
		run.Stats.Added++
		return nil
	}
	if !errors.Is(err, domain.ErrDuplicateKey) {
		log.Warn("insert failed", zap.String("url", job.URL), zap.Error(err))
		run.Stats.WriteFailures++
		return nil
	}

	// Seen before and deactivated since: bring it back.
	if err := r.store.UpdateJob(ctx, job); err != nil {
		log.Warn("update failed", zap.String("url", job.URL), zap.Error(err))
		run.Stats.WriteFailures++
		return nil
	}
	log.Info("posting reactivated", zap.String("title", job.Title), zap.String("url", job.URL))
	run.Stats.Updated++
	return nil
}

func (r *Runner) wait(ctx context.Context, k FetchKind) error {
	return r.sleep(ctx, r.delay(k))
}
