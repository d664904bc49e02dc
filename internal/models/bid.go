// Package models defines the core data types shared across the negotiation engine.
package models

import (
	"fmt"
	"sort"
	"strings"
)

// Bid is a complete proposal: an assignment of exactly one value to every
// issue in the domain. Bids are immutable after construction; identity is
// structural (two bids with identical issue->value mappings are equal).
type Bid struct {
	values map[string]string
	key    string
}

// NewBid creates a bid from an issue->value assignment. The input map is
// copied, so the caller may reuse it.
func NewBid(values map[string]string) Bid {
	copied := make(map[string]string, len(values))
	for issue, value := range values {
		copied[issue] = value
	}
	return Bid{values: copied, key: canonicalKey(copied)}
}

// Value returns the value assigned to the given issue, and whether the issue
// is present in this bid.
func (b Bid) Value(issue string) (string, bool) {
	v, ok := b.values[issue]
	return v, ok
}

// Issues returns the issue names of this bid in sorted order.
func (b Bid) Issues() []string {
	issues := make([]string, 0, len(b.values))
	for issue := range b.values {
		issues = append(issues, issue)
	}
	sort.Strings(issues)
	return issues
}

// Len returns the number of issues assigned in this bid.
func (b Bid) Len() int {
	return len(b.values)
}

// Key returns a canonical string key for the bid, suitable for map keys and
// structural equality checks.
func (b Bid) Key() string {
	return b.key
}

// Equal reports whether two bids have identical issue->value assignments.
func (b Bid) Equal(other Bid) bool {
	return b.key == other.key
}

// IsZero reports whether the bid is the zero value (no assignment at all).
func (b Bid) IsZero() bool {
	return b.values == nil
}

// String renders the bid as "issue=value, ..." in sorted issue order.
func (b Bid) String() string {
	parts := make([]string, 0, len(b.values))
	for _, issue := range b.Issues() {
		parts = append(parts, fmt.Sprintf("%s=%s", issue, b.values[issue]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func canonicalKey(values map[string]string) string {
	issues := make([]string, 0, len(values))
	for issue := range values {
		issues = append(issues, issue)
	}
	sort.Strings(issues)
	var sb strings.Builder
	for i, issue := range issues {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(issue)
		sb.WriteByte('=')
		sb.WriteString(values[issue])
	}
	return sb.String()
}
