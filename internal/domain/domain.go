// Package domain models the negotiation outcome space: the issues under
// negotiation and the legal values for each.
package domain

import (
	"fmt"
	"sort"

	"bilateral-negotiator/internal/errors"
	"bilateral-negotiator/internal/models"
)

// Domain is an enumerable outcome space. Issues are kept in a stable sorted
// order so that bid enumeration is deterministic across runs.
type Domain struct {
	name   string
	issues []string
	values map[string][]string
	index  map[string]map[string]int
	size   int
}

// New creates a domain from issue -> legal values. Every issue must have at
// least one value.
func New(name string, issueValues map[string][]string) (*Domain, error) {
	if len(issueValues) == 0 {
		return nil, errors.ErrEmptyDomain
	}

	issues := make([]string, 0, len(issueValues))
	for issue := range issueValues {
		issues = append(issues, issue)
	}
	sort.Strings(issues)

	values := make(map[string][]string, len(issues))
	index := make(map[string]map[string]int, len(issues))
	size := 1
	for _, issue := range issues {
		vals := issueValues[issue]
		if len(vals) == 0 {
			return nil, fmt.Errorf("issue %q has no values: %w", issue, errors.ErrEmptyDomain)
		}
		values[issue] = append([]string(nil), vals...)
		index[issue] = make(map[string]int, len(vals))
		for i, v := range vals {
			if _, dup := index[issue][v]; dup {
				return nil, fmt.Errorf("issue %q has duplicate value %q", issue, v)
			}
			index[issue][v] = i
		}
		size *= len(vals)
	}

	return &Domain{name: name, issues: issues, values: values, index: index, size: size}, nil
}

// Name returns the domain name.
func (d *Domain) Name() string {
	return d.name
}

// Issues returns the issue names in enumeration order.
func (d *Domain) Issues() []string {
	return d.issues
}

// Values returns the legal values for an issue, in declaration order.
func (d *Domain) Values(issue string) ([]string, error) {
	vals, ok := d.values[issue]
	if !ok {
		return nil, errors.NewDomainMismatchError(issue, "")
	}
	return vals, nil
}

// Size returns the number of distinct bids in the outcome space.
func (d *Domain) Size() int {
	return d.size
}

// Get returns the i-th bid of the enumeration, decoding i as a mixed-radix
// number over the per-issue value counts.
func (d *Domain) Get(i int) (models.Bid, error) {
	if i < 0 || i >= d.size {
		return models.Bid{}, fmt.Errorf("bid index %d out of range [0, %d)", i, d.size)
	}
	assignment := make(map[string]string, len(d.issues))
	for _, issue := range d.issues {
		vals := d.values[issue]
		assignment[issue] = vals[i%len(vals)]
		i /= len(vals)
	}
	return models.NewBid(assignment), nil
}

// All enumerates every bid in the outcome space. Intended for domains small
// enough to enumerate; the planner bounds its own candidate generation
// separately.
func (d *Domain) All() []models.Bid {
	bids := make([]models.Bid, 0, d.size)
	for i := 0; i < d.size; i++ {
		bid, _ := d.Get(i)
		bids = append(bids, bid)
	}
	return bids
}

// Contains validates that a bid assigns a legal value to every issue of this
// domain and nothing else. Returns a DomainMismatchError describing the first
// offending assignment.
func (d *Domain) Contains(bid models.Bid) error {
	if bid.Len() != len(d.issues) {
		for _, issue := range bid.Issues() {
			if _, ok := d.values[issue]; !ok {
				return errors.NewDomainMismatchError(issue, "")
			}
		}
		return errors.NewDomainMismatchError(fmt.Sprintf("expected %d issues, got %d", len(d.issues), bid.Len()), "")
	}
	for _, issue := range d.issues {
		value, ok := bid.Value(issue)
		if !ok {
			return errors.NewDomainMismatchError(issue, "")
		}
		if _, ok := d.index[issue][value]; !ok {
			return errors.NewDomainMismatchError(issue, value)
		}
	}
	return nil
}

// ValueIndex returns the position of value within issue's value list.
func (d *Domain) ValueIndex(issue, value string) (int, error) {
	byValue, ok := d.index[issue]
	if !ok {
		return 0, errors.NewDomainMismatchError(issue, "")
	}
	i, ok := byValue[value]
	if !ok {
		return 0, errors.NewDomainMismatchError(issue, value)
	}
	return i, nil
}
