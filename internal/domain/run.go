package domain

import "time"

// TimeLayout is the UTC layout used for run and insert timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// Run attributes every mutation made during one pipeline execution.
// It is issued once and read-only afterwards.
type Run struct {
	ID        string
	ATS       string
	StartedAt time.Time
	EndedAt   time.Time

	Stats RunStats
}

type RunStats struct {
	Companies        int
	CompaniesSkipped int
	CompaniesFailed  int
	PostingsSeen     int
	PostingsRejected int
	Added            int
	Updated          int
	Deactivated      int
	DetailFailures   int
	WriteFailures    int
}

func (r Run) Closed() bool { return !r.EndedAt.IsZero() }
