// Package identity turns a posting URL into a stable job identifier.
//
// Most boards expose an opaque token in the path; that token is hashed into
// a UUIDv5 under NameSpaceURL, so the same token always yields the same id.
// Boards that already put a UUID in the URL keep that UUID.
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"jobmirror/internal/domain"
)

// Namespace seeds every hashed identifier. Changing it re-keys every posting.
var Namespace = uuid.NameSpaceURL

var uuidRE = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Error describes why a locator was rejected. It unwraps to domain.ErrParse,
// and additionally to domain.ErrValidation for failed format checks.
type Error struct {
	URL        string
	Reason     string
	validation bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %s: %q", e.Reason, e.URL)
}

func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrParse:
		return true
	case domain.ErrValidation:
		return e.validation
	}
	return false
}

// Derive hashes a canonical locator. Equal locators give equal ids.
func Derive(locator string) string {
	return uuid.NewSHA1(Namespace, []byte(locator)).String()
}

// ValidUUID reports whether s is a lowercase canonical UUID.
func ValidUUID(s string) bool {
	return uuidRE.MatchString(s)
}

// Rule is a vendor's recipe for locating the token inside a posting URL.
type Rule struct {
	// Marker splits the URL; the part after it is the fragment.
	// Empty means "split on the career site URL".
	Marker string
	// FirstSegment keeps only the path segment right after the marker.
	FirstSegment bool
	// TrimSlashes strips leading and trailing "/" from the fragment.
	TrimSlashes bool
	// Embedded means the fragment is the vendor's own UUID: it is
	// validated and used as is instead of being hashed.
	Embedded bool
}

// Locator extracts the canonical fragment.
func (r Rule) Locator(postingURL, careerSiteURL string) (string, error) {
	marker := r.Marker
	if marker == "" {
		marker = careerSiteURL
	}
	if marker == "" {
		return "", &Error{URL: postingURL, Reason: "no marker to split on"}
	}

	parts := strings.Split(postingURL, marker)
	if len(parts) != 2 {
		return "", &Error{URL: postingURL, Reason: fmt.Sprintf("expected exactly one %q", marker)}
	}
	frag := parts[1]
	if r.TrimSlashes {
		frag = strings.Trim(frag, "/")
	}
	if r.FirstSegment {
		frag, _, _ = strings.Cut(frag, "/")
	}
	if strings.TrimSpace(frag) == "" {
		return "", &Error{URL: postingURL, Reason: "empty locator"}
	}
	return frag, nil
}

// Derive produces the job identifier for a posting URL.
func (r Rule) Derive(postingURL, careerSiteURL string) (string, error) {
	frag, err := r.Locator(postingURL, careerSiteURL)
	if err != nil {
		return "", err
	}
	if !r.Embedded {
		return Derive(frag), nil
	}
	if !ValidUUID(frag) {
		return "", &Error{URL: postingURL, Reason: fmt.Sprintf("locator %q is not a uuid", frag), validation: true}
	}
	return frag, nil
}
