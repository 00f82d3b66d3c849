package pipeline

import (
	"time"

	"github.com/google/uuid"

	"jobmirror/internal/domain"
)

// Ledger issues run identifiers and timestamps.
type Ledger struct {
	Now   func() time.Time
	NewID func() string
}

func NewLedger() *Ledger {
	return &Ledger{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: func() string { return uuid.NewString() },
	}
}

func (l *Ledger) Begin(ats string) domain.Run {
	return domain.Run{ID: l.NewID(), ATS: ats, StartedAt: l.Now()}
}

func (l *Ledger) End(run domain.Run) domain.Run {
	run.EndedAt = l.Now()
	return run
}
