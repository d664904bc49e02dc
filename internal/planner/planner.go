package planner

import (
	"sort"

	"github.com/rs/zerolog"

	"bilateral-negotiator/internal/errors"
	"bilateral-negotiator/internal/logging"
	"bilateral-negotiator/internal/models"
	"bilateral-negotiator/internal/opponent"
	"bilateral-negotiator/internal/profile"
)

// Planner holds an ordered plan of future offers and a cursor into it. It is
// built once when the terminal phase begins and extended with a one-turn
// budget whenever the plan runs dry.
type Planner struct {
	logger zerolog.Logger

	candidates []*BidInfo
	plan       []*BidInfo
	eu         float64
	reserve    float64
	cursor     int

	// certain is set when a consumed bid had acceptance probability 1; the
	// conditional expectation past that point is undefined, so the plan
	// stops extending.
	certain bool
}

// Options configures plan construction.
type Options struct {
	// SensibilityThreshold filters issue values during candidate generation:
	// a value survives when either side scores it strictly above this.
	SensibilityThreshold float64
	// Budget is the number of remaining offer turns to plan for.
	Budget int
}

// New generates the sensible candidate set, runs the greedy construction for
// the given budget, and returns a planner ready to serve offers.
func New(prof profile.UtilitySpace, model *opponent.Model, opts Options, logger zerolog.Logger) *Planner {
	p := &Planner{
		logger:  logging.WithComponent(logger, "planner"),
		reserve: prof.ReservationValue(),
	}
	p.candidates = sensibleBids(prof, model, opts.SensibilityThreshold)
	p.build(opts.Budget)
	return p
}

// FromCandidates builds a planner over an explicit candidate set, bypassing
// candidate generation. Used when the caller has already scored its bids.
func FromCandidates(candidates []*BidInfo, reserve float64, budget int, logger zerolog.Logger) *Planner {
	p := &Planner{
		logger:     logging.WithComponent(logger, "planner"),
		reserve:    reserve,
		candidates: candidates,
	}
	sort.SliceStable(p.candidates, func(i, j int) bool {
		return p.candidates[i].U > p.candidates[j].U
	})
	p.build(budget)
	return p
}

// build runs the greedy construction over the not-yet-selected candidates.
// Each pass scans every remaining candidate and adds the one whose marginal
// expected-utility contribution is largest; it stops early once no addition
// improves EU, which certifies that no further addition can either.
func (p *Planner) build(budget int) {
	remaining := p.candidates[:0:0]
	for _, b := range p.candidates {
		if !b.selected {
			remaining = append(remaining, b)
		}
	}
	p.candidates = remaining

	eu := p.reserve
	for i := 0; i < budget; i++ {
		bestEU := eu
		var best *BidInfo

		// Fold the already-selected prefix: euSuf is the expected utility
		// of the suffix from each scan position, pPref the probability that
		// every earlier planned bid was rejected.
		euSuf := eu
		pPref := 1.0
		for _, b := range p.candidates {
			if b.selected {
				euSuf -= pPref * b.P * b.U
				pPref *= 1.0 - b.P
				continue
			}
			euCur := eu + pPref*b.P*b.U - b.P*euSuf
			if euCur > bestEU {
				bestEU = euCur
				best = b
			}
		}

		if best == nil {
			break
		}
		best.selected = true
		eu = bestEU
	}

	p.plan = p.plan[:0]
	for _, b := range p.candidates {
		if b.selected {
			p.plan = append(p.plan, b)
		}
	}
	p.eu = eu
	p.cursor = 0

	logging.LogPlan(p.logger, len(p.plan), len(p.candidates), p.eu)
}

// NextOffer returns the bid at the plan cursor and advances it, updating the
// remaining expected utility to its conditional value given the offer is not
// accepted. When the last planned bid is consumed the plan is extended with a
// one-turn budget, unless a certain-acceptance bid already ended it.
func (p *Planner) NextOffer() (models.Bid, error) {
	if p.cursor >= len(p.plan) {
		return models.Bid{}, errors.ErrPlanExhausted
	}
	next := p.plan[p.cursor]
	p.cursor++

	if next.P >= 1.0 {
		// The conditional expectation given rejection does not exist; the
		// remaining value is exactly this bid's payoff.
		p.eu = next.Payoff()
		p.certain = true
	} else {
		p.eu = (p.eu - next.Payoff()) / (1.0 - next.P)
	}

	if p.cursor == len(p.plan) && !p.certain {
		p.build(1)
	}
	return next.Bid, nil
}

// ExpectedUtility returns the expected utility of the remaining plan.
func (p *Planner) ExpectedUtility() float64 {
	return p.eu
}

// Remaining returns the number of unconsumed offers in the plan.
func (p *Planner) Remaining() int {
	return len(p.plan) - p.cursor
}

// Plan returns the currently planned bids in offer order.
func (p *Planner) Plan() []*BidInfo {
	return p.plan
}

// sensibleBids builds the candidate pool: per issue, keep the values that at
// least one side scores above the threshold, then take the Cartesian product
// and sort by own utility descending. An issue where nothing clears the
// threshold keeps its single best value by own utility so the product never
// collapses to nothing.
func sensibleBids(prof profile.UtilitySpace, model *opponent.Model, threshold float64) []*BidInfo {
	dom := prof.Domain()
	issues := dom.Issues()

	surviving := make([][]string, len(issues))
	for i, issue := range issues {
		values, _ := dom.Values(issue)
		var kept []string
		for _, v := range values {
			if prof.ValueUtility(issue, v) > threshold || model.ValueUtility(issue, v) > threshold {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			kept = []string{bestValue(prof, issue, values)}
		}
		surviving[i] = kept
	}

	total := 1
	for _, vals := range surviving {
		total *= len(vals)
	}

	bids := make([]*BidInfo, 0, total)
	assignment := make(map[string]string, len(issues))
	for idx := 0; idx < total; idx++ {
		rem := idx
		for i, issue := range issues {
			vals := surviving[i]
			assignment[issue] = vals[rem%len(vals)]
			rem /= len(vals)
		}
		bid := models.NewBid(assignment)
		bids = append(bids, NewBidInfo(bid, prof.Utility(bid), model.PredictedUtility(bid)))
	}

	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].U > bids[j].U
	})
	return bids
}

func bestValue(prof profile.UtilitySpace, issue string, values []string) string {
	best := values[0]
	bestU := prof.ValueUtility(issue, best)
	for _, v := range values[1:] {
		if u := prof.ValueUtility(issue, v); u > bestU {
			best, bestU = v, u
		}
	}
	return best
}
