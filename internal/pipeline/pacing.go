package pipeline

import (
	"context"
	"time"
)

// FetchKind says which outbound fetch is about to happen.
type FetchKind int

const (
	ListingFetch FetchKind = iota
	DetailFetch
)

func (k FetchKind) String() string {
	if k == DetailFetch {
		return "detail"
	}
	return "listing"
}

// DelayPolicy returns the fixed wait before a fetch of the given kind.
type DelayPolicy func(FetchKind) time.Duration

func FixedDelays(listing, detail time.Duration) DelayPolicy {
	return func(k FetchKind) time.Duration {
		if k == DetailFetch {
			return detail
		}
		return listing
	}
}

func NoDelay(FetchKind) time.Duration { return 0 }

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
