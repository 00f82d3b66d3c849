package util

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter spaces the requests a connector makes inside one fetch, e.g.
// Workable listing pages, per hostname. The pipeline's delay policy paces
// fetches; this only keeps a multi-request fetch from bursting.
type HostLimiter struct {
	every rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewHostLimiter allows perSecond requests per host with the given burst.
// A non-positive rate leaves hosts unlimited.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	every := rate.Limit(perSecond)
	if perSecond <= 0 {
		every = rate.Inf
	}
	return &HostLimiter{every: every, burst: max(burst, 1), hosts: map[string]*rate.Limiter{}}
}

// WaitURL blocks until rawURL's host may be requested or ctx is done.
func (hl *HostLimiter) WaitURL(ctx context.Context, rawURL string) error {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}

	hl.mu.Lock()
	lim, ok := hl.hosts[host]
	if !ok {
		lim = rate.NewLimiter(hl.every, hl.burst)
		hl.hosts[host] = lim
	}
	hl.mu.Unlock()

	return lim.Wait(ctx)
}
