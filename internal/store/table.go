package store

import (
	"context"
	"fmt"
	"strings"
)

const schemaVersion = 1

var schema = []string{`
CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  company_name TEXT NOT NULL,
  ats TEXT NOT NULL,
  career_site_url TEXT
);`, `
CREATE INDEX IF NOT EXISTS idx_companies_ats
ON companies(ats);`, `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL REFERENCES companies(id),
  title TEXT NOT NULL,
  url TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  salary TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  active BOOLEAN NOT NULL DEFAULT TRUE,
  new BOOLEAN NOT NULL DEFAULT TRUE,
  remote BOOLEAN,
  insert_timestamp TEXT NOT NULL,
  scrape_insert_run_id TEXT NOT NULL,
  scrape_inactive_run_id TEXT
);`, `
CREATE INDEX IF NOT EXISTS idx_jobs_company_active
ON jobs(company_id, active);`, `
CREATE TABLE IF NOT EXISTS scrape_runs (
  id TEXT PRIMARY KEY,
  ats TEXT NOT NULL,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL,
  companies INTEGER NOT NULL DEFAULT 0,
  companies_skipped INTEGER NOT NULL DEFAULT 0,
  companies_failed INTEGER NOT NULL DEFAULT 0,
  postings_seen INTEGER NOT NULL DEFAULT 0,
  postings_rejected INTEGER NOT NULL DEFAULT 0,
  added INTEGER NOT NULL DEFAULT 0,
  updated INTEGER NOT NULL DEFAULT 0,
  deactivated INTEGER NOT NULL DEFAULT 0,
  detail_failures INTEGER NOT NULL DEFAULT 0,
  write_failures INTEGER NOT NULL DEFAULT 0
);`,
}

// Migrate creates the schema. SQLite tracks it in PRAGMA user_version;
// Postgres relies on IF NOT EXISTS.
func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.X.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if !d.postgres() {
		var v int
		if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
			return err
		}
		if v >= schemaVersion {
			return tx.Commit()
		}
	}

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %s: %w", firstLine(stmt), err)
		}
	}

	if !d.postgres() {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func firstLine(stmt string) string {
	s := strings.TrimSpace(stmt)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), " (")
}
