package store

import (
	"context"
	"fmt"
	"strings"

	"jobmirror/internal/domain"
)

// CompaniesByATS lists the companies registered for an ATS label. Labels are
// compared case-insensitively; a missing career site reads as "".
func (d *DB) CompaniesByATS(ctx context.Context, ats string) ([]domain.Company, error) {
	var out []domain.Company
	err := d.X.SelectContext(ctx, &out, d.X.Rebind(`
SELECT id, company_name, ats, COALESCE(career_site_url, '') AS career_site_url
FROM companies
WHERE LOWER(ats) = LOWER(?)
ORDER BY company_name;`), strings.TrimSpace(ats))
	if err != nil {
		return nil, fmt.Errorf("companies by ats %q: %w", ats, err)
	}
	return out, nil
}

// InsertCompanies adds companies, skipping ids that already exist. It
// returns how many rows were new.
func (d *DB) InsertCompanies(ctx context.Context, companies []domain.Company) (int, error) {
	added := 0
	for _, c := range companies {
		var site any
		if c.CareerSiteURL != "" {
			site = c.CareerSiteURL
		}
		res, err := d.X.ExecContext(ctx, d.X.Rebind(`
INSERT INTO companies (id, company_name, ats, career_site_url)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING;`), c.ID, c.Name, c.ATS, site)
		if err != nil {
			return added, fmt.Errorf("insert company %q: %w", c.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}
