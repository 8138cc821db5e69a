// Package domains resolves the operator's requested capability groups into
// the set of domains whose tools get registered with the MCP server.
package domains

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Domain is a named group of related Azure DevOps tools.
type Domain string

// Known domains.
const (
	AdvancedSecurity Domain = "advanced-security"
	Builds           Domain = "builds"
	Core             Domain = "core"
	Pipelines        Domain = "pipelines"
	Repositories     Domain = "repositories"
	Search           Domain = "search"
	TestPlans        Domain = "test-plans"
	Wiki             Domain = "wiki"
	Work             Domain = "work"
	WorkItems        Domain = "work-items"
)

// All is the wildcard request enabling every known domain. Matching is exact.
const All = "all"

// known is the fixed registry, kept sorted.
var known = []Domain{
	AdvancedSecurity,
	Builds,
	Core,
	Pipelines,
	Repositories,
	Search,
	TestPlans,
	Wiki,
	Work,
	WorkItems,
}

// ErrUnknownDomain is matched by every *UnknownDomainError.
var ErrUnknownDomain = errors.New("unknown domain")

// UnknownDomainError reports a requested domain that is not in the registry.
type UnknownDomainError struct {
	Name  string
	Valid []Domain
}

func (e *UnknownDomainError) Error() string {
	names := make([]string, len(e.Valid))
	for i, d := range e.Valid {
		names[i] = string(d)
	}
	return fmt.Sprintf("unknown domain %q (valid options: %s, or %q)", e.Name, strings.Join(names, ", "), All)
}

func (e *UnknownDomainError) Is(target error) bool {
	return target == ErrUnknownDomain
}

// Known returns a copy of the registry in sorted order.
func Known() []Domain {
	return slices.Clone(known)
}

// Set is an immutable, sorted set of enabled domains.
type Set struct {
	domains []Domain
}

// Resolve turns the requested names into the enabled set. Entries may contain
// comma-separated names. An empty request, or any entry equal to "all",
// enables every known domain. Any unknown name fails the whole resolution,
// even next to "all".
func Resolve(requested []string) (Set, error) {
	var names []string
	for _, entry := range requested {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				names = append(names, part)
			}
		}
	}

	wildcard := len(names) == 0
	enabled := make([]Domain, 0, len(names))
	for _, name := range names {
		if name == All {
			wildcard = true
			continue
		}
		d := Domain(name)
		if !slices.Contains(known, d) {
			return Set{}, &UnknownDomainError{Name: name, Valid: Known()}
		}
		if !slices.Contains(enabled, d) {
			enabled = append(enabled, d)
		}
	}

	if wildcard {
		return Set{domains: Known()}, nil
	}
	slices.Sort(enabled)

	return Set{domains: enabled}, nil
}

// Has reports whether d is enabled.
func (s Set) Has(d Domain) bool {
	return slices.Contains(s.domains, d)
}

// Domains returns the enabled domains in sorted order.
func (s Set) Domains() []Domain {
	return slices.Clone(s.domains)
}

// Len returns the number of enabled domains.
func (s Set) Len() int {
	return len(s.domains)
}

func (s Set) String() string {
	names := make([]string, len(s.domains))
	for i, d := range s.domains {
		names[i] = string(d)
	}
	return strings.Join(names, ",")
}
