package domain

import "strings"

// Remote is a tri-state: most boards never say either way.
type Remote int8

const (
	RemoteUnknown Remote = iota
	RemoteYes
	RemoteNo
)

func (r Remote) String() string {
	switch r {
	case RemoteYes:
		return "remote"
	case RemoteNo:
		return "onsite"
	default:
		return "unknown"
	}
}

// Ptr returns the nullable-bool form used by the store.
func (r Remote) Ptr() *bool {
	switch r {
	case RemoteYes:
		v := true
		return &v
	case RemoteNo:
		v := false
		return &v
	default:
		return nil
	}
}

func RemoteFromPtr(b *bool) Remote {
	switch {
	case b == nil:
		return RemoteUnknown
	case *b:
		return RemoteYes
	default:
		return RemoteNo
	}
}

// RemoteFromLocation marks a posting remote when its location says exactly that.
func RemoteFromLocation(loc string) Remote {
	if strings.EqualFold(strings.TrimSpace(loc), "remote") {
		return RemoteYes
	}
	return RemoteUnknown
}

// JobLead is one entry of a listing snapshot, before identity is known.
// Connectors must fill Title and URL; the rest is optional.
type JobLead struct {
	Title       string
	URL         string
	Location    string
	Remote      Remote
	Description string
	Salary      string
}

// Job is the persisted posting record.
type Job struct {
	ID          string
	CompanyID   string
	Title       string
	URL         string
	Description string
	Salary      string
	Location    string
	Remote      Remote
	Active      bool
	New         bool

	// InsertTimestamp is set by the store on insert and on the update fallback.
	InsertTimestamp string

	ScrapeInsertRunID   string
	ScrapeInactiveRunID *string
}

// JobFromLead starts a record from what the listing already told us.
func JobFromLead(id, companyID string, lead JobLead) Job {
	return Job{
		ID:          id,
		CompanyID:   companyID,
		Title:       lead.Title,
		URL:         lead.URL,
		Location:    lead.Location,
		Remote:      lead.Remote,
		Description: lead.Description,
		Salary:      lead.Salary,
	}
}
