package domain

// Company is a seeded employer whose career site lives on one ATS.
// The pipeline only reads companies.
type Company struct {
	ID            string `db:"id"`
	Name          string `db:"company_name"`
	ATS           string `db:"ats"`
	CareerSiteURL string `db:"career_site_url"`
}
