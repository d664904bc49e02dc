// Package profile implements the agent's own preference profile as a
// linear-additive utility space over the negotiation domain.
package profile

import (
	"fmt"
	"math"

	"bilateral-negotiator/internal/domain"
	"bilateral-negotiator/internal/errors"
	"bilateral-negotiator/internal/models"
)

// UtilitySpace maps bids to utilities in [0,1]. The engine depends on this
// interface, not on the linear-additive implementation.
type UtilitySpace interface {
	Utility(bid models.Bid) float64
	ValueUtility(issue, value string) float64
	ReservationBid() (models.Bid, bool)
	ReservationValue() float64
	Domain() *domain.Domain
}

// LinearAdditive is a utility space where each issue carries a normalized
// weight and each value a utility in [0,1]; a bid's utility is the
// weight-averaged sum of its value utilities.
type LinearAdditive struct {
	dom         *domain.Domain
	weights     map[string]float64
	valueUtils  map[string]map[string]float64
	reservation models.Bid
	hasReserve  bool
}

// NewLinearAdditive builds and validates a linear-additive utility space.
// Issue weights must sum to 1 (within tolerance) and every value utility must
// lie in [0,1]. The reservation bid is optional: pass a zero Bid for none.
func NewLinearAdditive(dom *domain.Domain, weights map[string]float64, valueUtils map[string]map[string]float64, reservation models.Bid) (*LinearAdditive, error) {
	var sum float64
	for _, issue := range dom.Issues() {
		w, ok := weights[issue]
		if !ok {
			return nil, errors.Wrapf(errors.ErrProfileInvalid, "missing weight for issue %q", issue)
		}
		if w < 0 {
			return nil, errors.Wrapf(errors.ErrProfileInvalid, "negative weight for issue %q", issue)
		}
		sum += w

		utils, ok := valueUtils[issue]
		if !ok {
			return nil, errors.Wrapf(errors.ErrProfileInvalid, "missing value utilities for issue %q", issue)
		}
		values, err := dom.Values(issue)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			u, ok := utils[v]
			if !ok {
				return nil, errors.Wrapf(errors.ErrProfileInvalid, "missing utility for %s=%s", issue, v)
			}
			if u < 0 || u > 1 {
				return nil, errors.Wrapf(errors.ErrProfileInvalid, "utility for %s=%s out of [0,1]: %v", issue, v, u)
			}
		}
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return nil, errors.Wrapf(errors.ErrProfileInvalid, "issue weights sum to %v, want 1", sum)
	}

	p := &LinearAdditive{
		dom:        dom,
		weights:    weights,
		valueUtils: valueUtils,
	}
	if !reservation.IsZero() {
		if err := dom.Contains(reservation); err != nil {
			return nil, fmt.Errorf("reservation bid: %w", err)
		}
		p.reservation = reservation
		p.hasReserve = true
	}
	return p, nil
}

// Utility returns the agent's utility for a bid. Issues the bid does not
// assign contribute nothing, so partial bids score low rather than failing.
func (p *LinearAdditive) Utility(bid models.Bid) float64 {
	var total float64
	for _, issue := range p.dom.Issues() {
		value, ok := bid.Value(issue)
		if !ok {
			continue
		}
		u, ok := p.valueUtils[issue][value]
		if !ok {
			continue
		}
		total += p.weights[issue] * u
	}
	return clamp01(total)
}

// ValueUtility returns the utility of a single value for an issue, before
// issue weighting. Unknown issues or values score 0.
func (p *LinearAdditive) ValueUtility(issue, value string) float64 {
	u, ok := p.valueUtils[issue][value]
	if !ok {
		return 0
	}
	return u
}

// Weight returns the normalized importance weight of an issue.
func (p *LinearAdditive) Weight(issue string) float64 {
	return p.weights[issue]
}

// ReservationBid returns the no-agreement fallback bid, if one is defined.
func (p *LinearAdditive) ReservationBid() (models.Bid, bool) {
	return p.reservation, p.hasReserve
}

// ReservationValue returns the utility of the reservation bid, or 0 when no
// reservation bid is defined.
func (p *LinearAdditive) ReservationValue() float64 {
	if !p.hasReserve {
		return 0
	}
	return p.Utility(p.reservation)
}

// Domain returns the outcome space this profile is defined over.
func (p *LinearAdditive) Domain() *domain.Domain {
	return p.dom
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
