// Package registry maps an ATS label to its connector.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"jobmirror/internal/ats"
	"jobmirror/internal/ats/ashby"
	"jobmirror/internal/ats/greenhouse"
	"jobmirror/internal/ats/jazzhr"
	"jobmirror/internal/ats/lever"
	"jobmirror/internal/ats/workable"
)

var constructors = map[string]func(ats.Options) ats.Connector{
	"ashby":      func(o ats.Options) ats.Connector { return ashby.New(o) },
	"greenhouse": func(o ats.Options) ats.Connector { return greenhouse.New(o) },
	"jazzhr":     func(o ats.Options) ats.Connector { return jazzhr.New(o) },
	"lever":      func(o ats.Options) ats.Connector { return lever.New(o) },
	"workable":   func(o ats.Options) ats.Connector { return workable.New(o) },
}

// New builds the connector for label, ignoring case.
func New(label string, opts ats.Options) (ats.Connector, error) {
	mk, ok := constructors[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return nil, fmt.Errorf("unknown ats %q (want one of %s)", label, strings.Join(Labels(), ", "))
	}
	return mk(opts), nil
}

func Labels() []string {
	out := make([]string, 0, len(constructors))
	for k := range constructors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
