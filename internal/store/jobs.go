package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"jobmirror/internal/domain"
)

type jobRow struct {
	ID                  string         `db:"id"`
	CompanyID           string         `db:"company_id"`
	Title               string         `db:"title"`
	URL                 string         `db:"url"`
	Description         string         `db:"description"`
	Salary              string         `db:"salary"`
	Location            string         `db:"location"`
	Active              bool           `db:"active"`
	New                 bool           `db:"new"`
	Remote              sql.NullBool   `db:"remote"`
	InsertTimestamp     string         `db:"insert_timestamp"`
	ScrapeInsertRunID   string         `db:"scrape_insert_run_id"`
	ScrapeInactiveRunID sql.NullString `db:"scrape_inactive_run_id"`
}

func toRow(j domain.Job) jobRow {
	r := jobRow{
		ID:                j.ID,
		CompanyID:         j.CompanyID,
		Title:             j.Title,
		URL:               j.URL,
		Description:       j.Description,
		Salary:            j.Salary,
		Location:          j.Location,
		Active:            j.Active,
		New:               j.New,
		InsertTimestamp:   j.InsertTimestamp,
		ScrapeInsertRunID: j.ScrapeInsertRunID,
	}
	if p := j.Remote.Ptr(); p != nil {
		r.Remote = sql.NullBool{Bool: *p, Valid: true}
	}
	if j.ScrapeInactiveRunID != nil {
		r.ScrapeInactiveRunID = sql.NullString{String: *j.ScrapeInactiveRunID, Valid: true}
	}
	return r
}

func (r jobRow) job() domain.Job {
	j := domain.Job{
		ID:                r.ID,
		CompanyID:         r.CompanyID,
		Title:             r.Title,
		URL:               r.URL,
		Description:       r.Description,
		Salary:            r.Salary,
		Location:          r.Location,
		Active:            r.Active,
		New:               r.New,
		InsertTimestamp:   r.InsertTimestamp,
		ScrapeInsertRunID: r.ScrapeInsertRunID,
	}
	if r.Remote.Valid {
		j.Remote = domain.RemoteFromPtr(&r.Remote.Bool)
	}
	if r.ScrapeInactiveRunID.Valid {
		s := r.ScrapeInactiveRunID.String
		j.ScrapeInactiveRunID = &s
	}
	return j
}

func (d *DB) ActiveJobIDs(ctx context.Context, companyID string) ([]string, error) {
	var ids []string
	err := d.X.SelectContext(ctx, &ids, d.X.Rebind(`
SELECT id
FROM jobs
WHERE company_id = ?
  AND active = TRUE;`), companyID)
	if err != nil {
		return nil, fmt.Errorf("active jobs for %s: %w", companyID, err)
	}
	return ids, nil
}

// InsertJob stamps insert_timestamp and inserts. An existing id yields
// domain.ErrDuplicateKey.
func (d *DB) InsertJob(ctx context.Context, job domain.Job) error {
	row := toRow(job)
	row.InsertTimestamp = d.timestamp()
	_, err := d.X.NamedExecContext(ctx, `
INSERT INTO jobs (
  id, company_id, title, url, description, salary, location,
  active, new, remote, insert_timestamp, scrape_insert_run_id, scrape_inactive_run_id
) VALUES (
  :id, :company_id, :title, :url, :description, :salary, :location,
  :active, :new, :remote, :insert_timestamp, :scrape_insert_run_id, :scrape_inactive_run_id
);`, row)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, duplicateKey(err, job.ID))
	}
	return nil
}

// UpdateJob replaces a posting, restamps insert_timestamp and clears the
// deactivating run.
func (d *DB) UpdateJob(ctx context.Context, job domain.Job) error {
	row := toRow(job)
	row.InsertTimestamp = d.timestamp()
	res, err := d.X.NamedExecContext(ctx, `
UPDATE jobs
SET title = :title,
    url = :url,
    description = :description,
    salary = :salary,
    location = :location,
    active = :active,
    new = :new,
    remote = :remote,
    insert_timestamp = :insert_timestamp,
    scrape_insert_run_id = :scrape_insert_run_id,
    scrape_inactive_run_id = NULL
WHERE id = :id;`, row)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, sql.ErrNoRows)
	}
	return nil
}

// DeactivateJobs is one statement for the whole batch. Ids that are already
// inactive get the new run id; unknown ids are ignored.
func (d *DB) DeactivateJobs(ctx context.Context, ids []string, runID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(`
UPDATE jobs
SET active = FALSE,
    scrape_inactive_run_id = ?
WHERE id IN (?);`, runID, ids)
	if err != nil {
		return 0, fmt.Errorf("deactivate: %w", err)
	}
	res, err := d.X.ExecContext(ctx, d.X.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("deactivate %d jobs: %w", len(ids), err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (d *DB) GetJob(ctx context.Context, id string) (domain.Job, error) {
	var r jobRow
	err := d.X.GetContext(ctx, &r, d.X.Rebind(`
SELECT id, company_id, title, url, description, salary, location, active, new,
       remote, insert_timestamp, scrape_insert_run_id, scrape_inactive_run_id
FROM jobs
WHERE id = ?;`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, err)
	}
	return r.job(), nil
}
