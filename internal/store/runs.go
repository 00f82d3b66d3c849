package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobmirror/internal/domain"
)

type runRow struct {
	ID               string `db:"id"`
	ATS              string `db:"ats"`
	StartedAt        string `db:"started_at"`
	EndedAt          string `db:"ended_at"`
	Companies        int    `db:"companies"`
	CompaniesSkipped int    `db:"companies_skipped"`
	CompaniesFailed  int    `db:"companies_failed"`
	PostingsSeen     int    `db:"postings_seen"`
	PostingsRejected int    `db:"postings_rejected"`
	Added            int    `db:"added"`
	Updated          int    `db:"updated"`
	Deactivated      int    `db:"deactivated"`
	DetailFailures   int    `db:"detail_failures"`
	WriteFailures    int    `db:"write_failures"`
}

// RecordRun writes a closed run's summary to scrape_runs.
func (d *DB) RecordRun(ctx context.Context, run domain.Run) error {
	s := run.Stats
	row := runRow{
		ID:               run.ID,
		ATS:              run.ATS,
		StartedAt:        run.StartedAt.UTC().Format(domain.TimeLayout),
		EndedAt:          run.EndedAt.UTC().Format(domain.TimeLayout),
		Companies:        s.Companies,
		CompaniesSkipped: s.CompaniesSkipped,
		CompaniesFailed:  s.CompaniesFailed,
		PostingsSeen:     s.PostingsSeen,
		PostingsRejected: s.PostingsRejected,
		Added:            s.Added,
		Updated:          s.Updated,
		Deactivated:      s.Deactivated,
		DetailFailures:   s.DetailFailures,
		WriteFailures:    s.WriteFailures,
	}
	_, err := d.X.NamedExecContext(ctx, `
INSERT INTO scrape_runs (
  id, ats, started_at, ended_at, companies, companies_skipped, companies_failed,
  postings_seen, postings_rejected, added, updated, deactivated, detail_failures, write_failures
) VALUES (
  :id, :ats, :started_at, :ended_at, :companies, :companies_skipped, :companies_failed,
  :postings_seen, :postings_rejected, :added, :updated, :deactivated, :detail_failures, :write_failures
);`, row)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// LastRun returns the most recently started run for an ATS label.
func (d *DB) LastRun(ctx context.Context, ats string) (domain.Run, error) {
	var r runRow
	err := d.X.GetContext(ctx, &r, d.X.Rebind(`
SELECT *
FROM scrape_runs
WHERE ats = ?
ORDER BY started_at DESC
LIMIT 1;`), ats)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, fmt.Errorf("last run for %s: %w", ats, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("last run for %s: %w", ats, err)
	}
	return r.run()
}

func (r runRow) run() (domain.Run, error) {
	started, err := time.Parse(domain.TimeLayout, r.StartedAt)
	if err != nil {
		return domain.Run{}, fmt.Errorf("run %s started_at: %w", r.ID, err)
	}
	ended, err := time.Parse(domain.TimeLayout, r.EndedAt)
	if err != nil {
		return domain.Run{}, fmt.Errorf("run %s ended_at: %w", r.ID, err)
	}
	return domain.Run{
		ID:        r.ID,
		ATS:       r.ATS,
		StartedAt: started,
		EndedAt:   ended,
		Stats: domain.RunStats{
			Companies:        r.Companies,
			CompaniesSkipped: r.CompaniesSkipped,
			CompaniesFailed:  r.CompaniesFailed,
			PostingsSeen:     r.PostingsSeen,
			PostingsRejected: r.PostingsRejected,
			Added:            r.Added,
			Updated:          r.Updated,
			Deactivated:      r.Deactivated,
			DetailFailures:   r.DetailFailures,
			WriteFailures:    r.WriteFailures,
		},
	}, nil
}
