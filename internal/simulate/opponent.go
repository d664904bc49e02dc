// Package simulate provides in-process counterparties so a full negotiation
// session can run without an external protocol runtime. The simulated
// opponents stand in for the remote party the same way a paper broker
// stands in for an exchange.
package simulate

import (
	"math"
	"math/rand"

	"bilateral-negotiator/internal/models"
	"bilateral-negotiator/internal/profile"
)

// Opponent is a simulated counterparty: it proposes bids over time and
// decides whether to accept ours.
type Opponent interface {
	Name() string
	Propose(t float64) models.Bid
	Accepts(t float64, bid models.Bid) bool
	Utility(bid models.Bid) float64
}

// TimeConceder is a standard time-dependent concession opponent. Its
// aspiration level decays from 1 toward a minimum as the deadline
// approaches; the concession exponent below 1 gives Boulware behavior
// (concedes late), above 1 a quick conceder.
type TimeConceder struct {
	name       string
	prof       *profile.LinearAdditive
	exponent   float64
	minUtility float64
	rng        *rand.Rand

	// sampling budget per proposal
	draws int
}

// NewTimeConceder creates a time-dependent concession opponent over its own
// preference profile.
func NewTimeConceder(name string, prof *profile.LinearAdditive, exponent, minUtility float64, rng *rand.Rand) *TimeConceder {
	if exponent <= 0 {
		exponent = 1
	}
	return &TimeConceder{
		name:       name,
		prof:       prof,
		exponent:   exponent,
		minUtility: minUtility,
		rng:        rng,
		draws:      200,
	}
}

// Name returns the opponent's display name.
func (o *TimeConceder) Name() string {
	return o.name
}

// aspiration is the opponent's current utility target.
func (o *TimeConceder) aspiration(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return o.minUtility + (1-o.minUtility)*(1-math.Pow(t, 1/o.exponent))
}

// Propose draws a bounded random sample and returns the bid closest above
// the current aspiration level, falling back to the best draw when nothing
// clears it.
func (o *TimeConceder) Propose(t float64) models.Bid {
	dom := o.prof.Domain()
	target := o.aspiration(t)

	var best, closest models.Bid
	bestU := -1.0
	closestExcess := math.MaxFloat64
	for i := 0; i < o.draws; i++ {
		bid, err := dom.Get(o.rng.Intn(dom.Size()))
		if err != nil {
			continue
		}
		u := o.prof.Utility(bid)
		if u > bestU {
			best, bestU = bid, u
		}
		if u >= target && u-target < closestExcess {
			closest, closestExcess = bid, u-target
		}
	}
	if !closest.IsZero() {
		return closest
	}
	return best
}

// Accepts reports whether the opponent takes the offered bid at time t.
func (o *TimeConceder) Accepts(t float64, bid models.Bid) bool {
	return o.prof.Utility(bid) >= o.aspiration(t)
}

// Utility returns the opponent's true utility for a bid, for reporting.
func (o *TimeConceder) Utility(bid models.Bid) float64 {
	return o.prof.Utility(bid)
}

// RandomBidder proposes uniformly random bids and accepts anything above a
// fixed utility threshold. A baseline counterparty for sanity runs.
type RandomBidder struct {
	name      string
	prof      *profile.LinearAdditive
	threshold float64
	rng       *rand.Rand
}

// NewRandomBidder creates a uniformly random opponent with a fixed acceptance
// threshold.
func NewRandomBidder(name string, prof *profile.LinearAdditive, threshold float64, rng *rand.Rand) *RandomBidder {
	return &RandomBidder{name: name, prof: prof, threshold: threshold, rng: rng}
}

// Name returns the opponent's display name.
func (o *RandomBidder) Name() string {
	return o.name
}

// Propose draws a uniformly random bid from the outcome space.
func (o *RandomBidder) Propose(float64) models.Bid {
	dom := o.prof.Domain()
	bid, err := dom.Get(o.rng.Intn(dom.Size()))
	if err != nil {
		bid, _ = dom.Get(0)
	}
	return bid
}

// Accepts reports whether the offered bid clears the fixed threshold.
func (o *RandomBidder) Accepts(_ float64, bid models.Bid) bool {
	return o.prof.Utility(bid) >= o.threshold
}

// Utility returns the opponent's true utility for a bid, for reporting.
func (o *RandomBidder) Utility(bid models.Bid) float64 {
	return o.prof.Utility(bid)
}
