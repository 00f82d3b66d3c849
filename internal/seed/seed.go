// Package seed loads the company list from a CSV with the columns
// company, ats and career_site (any order, header required).
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"jobmirror/internal/domain"
)

// CompanyID derives a company's id from its name.
func CompanyID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// ReadCompanies parses r. Rows without a company name or ATS are errors;
// an empty career_site is kept as "" and skipped by the pipeline later.
func ReadCompanies(r io.Reader) ([]domain.Company, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("seed: empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("seed: header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, want := range []string{"company", "ats", "career_site"} {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("seed: missing column %q", want)
		}
	}

	var out []domain.Company
	seen := map[string]bool{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seed: line %d: %w", line, err)
		}
		name := strings.TrimSpace(rec[col["company"]])
		ats := strings.TrimSpace(rec[col["ats"]])
		if name == "" || ats == "" {
			return nil, fmt.Errorf("seed: line %d: company and ats are required", line)
		}
		id := CompanyID(name)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, domain.Company{
			ID:            id,
			Name:          name,
			ATS:           ats,
			CareerSiteURL: strings.TrimSpace(rec[col["career_site"]]),
		})
	}
	return out, nil
}
