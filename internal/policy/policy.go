// Package policy implements the phase-dispatching accept/offer decision
// function. Behavior hardens or concedes as deadline progress crosses the
// configured phase boundaries, ending with the planner-driven terminal
// region.
package policy

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"bilateral-negotiator/internal/config"
	"bilateral-negotiator/internal/errors"
	"bilateral-negotiator/internal/logging"
	"bilateral-negotiator/internal/models"
	"bilateral-negotiator/internal/opponent"
	"bilateral-negotiator/internal/planner"
	"bilateral-negotiator/internal/profile"
)

// Turn carries everything the policy needs to decide one turn.
type Turn struct {
	// Progress is deadline progress in [0,1].
	Progress float64
	// LastBid is the opponent's most recent bid; HaveLast is false before
	// the opponent has offered anything.
	LastBid  models.Bid
	HaveLast bool
	// Model is the opponent model, nil until the first opponent bid.
	Model *opponent.Model
	// RemainingTurns is the number of offer turns left, used to budget the
	// terminal-phase plan.
	RemainingTurns int
}

// Policy owns the per-phase decision rules and, once the terminal region is
// reached, the offer planner.
type Policy struct {
	cfg        config.PolicyConfig
	plannerCfg config.PlannerConfig
	prof       profile.UtilitySpace
	rng        *rand.Rand
	logger     zerolog.Logger

	plan *planner.Planner
}

// New creates a policy. The rng is owned by the caller so sessions can be
// made deterministic.
func New(cfg config.PolicyConfig, plannerCfg config.PlannerConfig, prof profile.UtilitySpace, rng *rand.Rand, logger zerolog.Logger) *Policy {
	return &Policy{
		cfg:        cfg,
		plannerCfg: plannerCfg,
		prof:       prof,
		rng:        rng,
		logger:     logging.WithComponent(logger, "policy"),
	}
}

// PhaseAt maps deadline progress onto a phase given the boundaries.
func PhaseAt(t float64, boundaries []float64) models.Phase {
	switch {
	case t < boundaries[0]:
		return models.PhaseLearning
	case t < boundaries[1]:
		return models.PhaseDiscussion
	case t < boundaries[2]:
		return models.PhaseConcession
	default:
		return models.PhaseTerminal
	}
}

// Decide produces exactly one decision for the turn. It never fails: every
// error path degrades to offering the best known bid.
func (p *Policy) Decide(turn Turn) models.Decision {
	phase := PhaseAt(turn.Progress, p.cfg.PhaseBoundaries)
	var d models.Decision
	switch phase {
	case models.PhaseLearning:
		d = p.learningTurn(turn)
	case models.PhaseDiscussion:
		d = p.discussionTurn(turn)
	case models.PhaseConcession:
		d = p.concessionTurn(turn)
	default:
		d = p.terminalTurn(turn)
	}
	d.Phase = phase
	d.Progress = turn.Progress
	return d
}

// learningTurn accepts only near-perfect bids and otherwise counters with
// the best own-utility bid a bounded random sample can find.
func (p *Policy) learningTurn(turn Turn) models.Decision {
	if turn.HaveLast {
		if u := p.prof.Utility(turn.LastBid); u > p.cfg.LearningAccept {
			logging.LogAccept(p.logger, models.PhaseLearning.String(), turn.Progress, u, p.cfg.LearningAccept)
			return models.Accept(turn.LastBid, u)
		}
	}
	bid := p.bestSampledBid()
	return models.Offer(bid, p.prof.Utility(bid))
}

// discussionTurn accepts good bids and otherwise offers uniformly from the
// bids still above the decreasing utility floor.
func (p *Policy) discussionTurn(turn Turn) models.Decision {
	if turn.HaveLast {
		if u := p.prof.Utility(turn.LastBid); u > p.cfg.DiscussionAccept {
			logging.LogAccept(p.logger, models.PhaseDiscussion.String(), turn.Progress, u, p.cfg.DiscussionAccept)
			return models.Accept(turn.LastBid, u)
		}
	}

	floor := p.discussionFloor(turn.Progress)
	// The filtered set is rebuilt from the domain on every call; the floor
	// only decreases, so nothing valid is ever lost by not caching.
	all := p.prof.Domain().All()
	var above []models.Bid
	best := all[0]
	bestU := p.prof.Utility(best)
	for _, bid := range all {
		u := p.prof.Utility(bid)
		if u > bestU {
			best, bestU = bid, u
		}
		if u > floor {
			above = append(above, bid)
		}
	}
	if len(above) == 0 {
		// Configuration or domain-size problem. Do not offer an unfiltered
		// bid; degrade to the exact utility maximum and say so.
		p.logger.Error().
			Float64("floor", floor).
			Err(errors.ErrEmptyCandidates).
			Msg("No bid clears the discussion floor")
		return models.Offer(best, bestU)
	}
	bid := above[p.rng.Intn(len(above))]
	return models.Offer(bid, p.prof.Utility(bid))
}

// discussionFloor computes the time-dependent utility floor for discussion
// offers, clamped to [0,1] against adversarial boundary configurations.
func (p *Policy) discussionFloor(t float64) float64 {
	b0 := p.cfg.PhaseBoundaries[0]
	b1 := p.cfg.PhaseBoundaries[1]
	static := p.prof.ReservationValue()
	if p.cfg.DiscussionFloorMin > static {
		static = p.cfg.DiscussionFloorMin
	}
	floor := b1 - b0*t*t
	if static > floor {
		floor = static
	}
	return clamp01(floor)
}

// concessionTurn applies the equilibrium acceptance bound and counters with
// a draw from the joint-utility sampler.
func (p *Policy) concessionTurn(turn Turn) models.Decision {
	bound := AcceptanceBound(turn.Progress, p.prof.ReservationValue(), p.bestObserved(turn))
	if turn.HaveLast {
		if u := p.prof.Utility(turn.LastBid); u > bound {
			logging.LogAccept(p.logger, models.PhaseConcession.String(), turn.Progress, u, bound)
			return models.Accept(turn.LastBid, u)
		}
	}
	bid := p.jointSample(turn)
	return models.Offer(bid, p.prof.Utility(bid))
}

// terminalTurn delegates offer selection to the planner and applies the
// equilibrium-style bound against the plan's remaining expected utility.
func (p *Policy) terminalTurn(turn Turn) models.Decision {
	if p.plan == nil {
		p.plan = p.buildPlan(turn)
	}

	bound := boundAt(turn.Progress, p.plan.ExpectedUtility())
	if turn.HaveLast {
		if u := p.prof.Utility(turn.LastBid); u > bound {
			logging.LogAccept(p.logger, models.PhaseTerminal.String(), turn.Progress, u, bound)
			return models.Accept(turn.LastBid, u)
		}
	}

	bid, err := p.plan.NextOffer()
	if err != nil {
		// Plan could not be extended; fall back to the best known bid.
		p.logger.Warn().Err(err).Msg("Offer plan exhausted, falling back")
		bid = p.bestSampledBid()
	}
	return models.Offer(bid, p.prof.Utility(bid))
}

func (p *Policy) buildPlan(turn Turn) *planner.Planner {
	budget := turn.RemainingTurns
	if budget <= 0 {
		budget = p.plannerCfg.TurnEstimate
	}
	model := turn.Model
	if model == nil {
		model = opponent.NewModel(p.prof.Domain(), 0)
	}
	return planner.New(p.prof, model, planner.Options{
		SensibilityThreshold: p.plannerCfg.SensibilityThreshold,
		Budget:               budget,
	}, p.logger)
}

// jointSample scores every bid by the time-weighted joint utility
// J(t, bid) = (selfWeight − timeWeight·t²)·u(bid) + predicted(bid), then
// draws uniformly among bids whose own utility alone reaches the joint
// maximum. The filter is deliberately on own utility against the joint
// maximum: it keeps only self-beneficial bids that are still competitive,
// and when none qualifies, a joint-maximizing bid is offered, with ties on
// J broken by the trade-off score.
func (p *Policy) jointSample(turn Turn) models.Bid {
	selfFactor := p.cfg.JointSelfWeight - p.cfg.JointTimeWeight*turn.Progress*turn.Progress

	var jMax float64
	var jTied []models.Bid
	first := true
	all := p.prof.Domain().All()
	for _, bid := range all {
		j := selfFactor * p.prof.Utility(bid)
		if turn.Model != nil {
			j += turn.Model.PredictedUtility(bid)
		}
		switch {
		case first || j > jMax+jointTie:
			jMax = j
			jTied = append(jTied[:0], bid)
			first = false
		case j >= jMax-jointTie:
			jTied = append(jTied, bid)
		}
	}

	var eligible []models.Bid
	for _, bid := range all {
		if p.prof.Utility(bid) >= jMax {
			eligible = append(eligible, bid)
		}
	}
	if len(eligible) == 0 {
		best := jTied[0]
		bestScore := p.scoreBid(turn, best)
		for _, bid := range jTied[1:] {
			if s := p.scoreBid(turn, bid); s > bestScore {
				best, bestScore = bid, s
			}
		}
		return best
	}
	return eligible[p.rng.Intn(len(eligible))]
}

// jointTie is the tolerance within which two joint utilities count as equal.
const jointTie = 1e-9

// Trade-off scoring constants: alpha splits own against predicted opponent
// utility, eps controls how late the time pressure releases.
const (
	tradeoffAlpha = 0.95
	tradeoffEps   = 0.1
)

// scoreBid rates a bid under time pressure: while pressure is high the own
// utility dominates, and near the deadline the predicted opponent utility
// takes over.
func (p *Policy) scoreBid(turn Turn, bid models.Bid) float64 {
	pressure := 1 - math.Pow(turn.Progress, 1/tradeoffEps)
	score := tradeoffAlpha * pressure * p.prof.Utility(bid)
	if turn.Model != nil {
		score += (1 - tradeoffAlpha) * (1 - pressure) * turn.Model.PredictedUtility(bid)
	}
	return score
}

// bestSampledBid draws a bounded number of random bids from the outcome
// space and returns the one with the highest own utility. A cheap
// approximation of the maximum, fine for a combinatorially large space.
func (p *Policy) bestSampledBid() models.Bid {
	dom := p.prof.Domain()
	size := dom.Size()

	var best models.Bid
	bestU := -1.0
	for i := 0; i < p.cfg.SampleBudget; i++ {
		bid, err := dom.Get(p.rng.Intn(size))
		if err != nil {
			continue
		}
		if u := p.prof.Utility(bid); u > bestU {
			best, bestU = bid, u
		}
	}
	return best
}

func (p *Policy) bestObserved(turn Turn) float64 {
	if turn.Model == nil {
		return 0
	}
	return turn.Model.BestObservedUtility(p.prof.Utility)
}

// ResetPlan discards any terminal-phase plan, forcing a rebuild on the next
// terminal turn. Called when a new session starts.
func (p *Policy) ResetPlan() {
	p.plan = nil
}

// CurrentPlan exposes the terminal-phase planner, nil before the terminal
// region is first entered.
func (p *Policy) CurrentPlan() *planner.Planner {
	return p.plan
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
