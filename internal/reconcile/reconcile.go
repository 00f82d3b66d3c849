// Package reconcile diffs the identifiers seen in a listing against the
// identifiers currently stored as active.
package reconcile

import "sort"

// Set is a set of job identifiers.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Add(id string) { s[id] = struct{}{} }

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in a stable order, for logging and batching.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Result is what must change for one company.
type Result struct {
	Add    Set
	Remove Set
}

func (r Result) Empty() bool { return len(r.Add) == 0 && len(r.Remove) == 0 }

// Diff computes add = current \ active and remove = active \ current.
//
// An empty current set is authoritative here and removes everything. Callers
// must not pass the result of a failed listing fetch.
func Diff(current, active Set) Result {
	res := Result{Add: Set{}, Remove: Set{}}
	for id := range current {
		if !active.Has(id) {
			res.Add.Add(id)
		}
	}
	for id := range active {
		if !current.Has(id) {
			res.Remove.Add(id)
		}
	}
	return res
}
