package pipeline

import (
	"context"

	"jobmirror/internal/domain"
)

// Gateway is everything the pipeline persists. Each call is its own atomic
// unit; nothing spans a company or a run.
type Gateway interface {
	CompaniesByATS(ctx context.Context, ats string) ([]domain.Company, error)
	ActiveJobIDs(ctx context.Context, companyID string) ([]string, error)
	// InsertJob must fail with domain.ErrDuplicateKey when the id exists.
	InsertJob(ctx context.Context, job domain.Job) error
	// UpdateJob replaces the record and clears ScrapeInactiveRunID.
	UpdateJob(ctx context.Context, job domain.Job) error
	// DeactivateJobs marks ids inactive and stamps runID. Already inactive
	// ids are overwritten, not rejected.
	DeactivateJobs(ctx context.Context, ids []string, runID string) (int64, error)
}

// RunRecorder is optionally implemented by a Gateway that keeps a run table.
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.Run) error
}
