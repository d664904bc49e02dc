// Package session wires the opponent model, policy, and planner into a
// session-scoped engine. All mutable negotiation state lives here for
// exactly one session; nothing is shared between sessions.
package session

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"bilateral-negotiator/internal/config"
	"bilateral-negotiator/internal/logging"
	"bilateral-negotiator/internal/models"
	"bilateral-negotiator/internal/opponent"
	"bilateral-negotiator/internal/policy"
	"bilateral-negotiator/internal/profile"
	"bilateral-negotiator/internal/store"
)

// Engine is the decision engine for one negotiation session. It is
// single-threaded: the protocol runtime calls OnOpponentBid and OnTurn
// strictly alternately and never concurrently.
type Engine struct {
	id       string
	cfg      *config.Config
	prof     profile.UtilitySpace
	progress Progress
	policy   *policy.Policy
	journal  store.Journal
	logger   zerolog.Logger

	model     *opponent.Model
	lastBid   models.Bid
	haveLast  bool
	bestOwn   models.Bid
	bestOwnU  float64
	decisions []models.Decision
	startedAt time.Time
	ended     bool
}

// Options configures a session engine.
type Options struct {
	ID       string
	Config   *config.Config
	Profile  profile.UtilitySpace
	Progress Progress
	Journal  store.Journal // optional; nil disables persistence
	Rng      *rand.Rand    // optional; nil seeds from config or time
	Logger   zerolog.Logger
}

// New creates a session engine.
func New(opts Options) *Engine {
	rng := opts.Rng
	if rng == nil {
		seed := opts.Config.Session.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	id := opts.ID
	if id == "" {
		id = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}
	logger := logging.WithSession(opts.Logger, id)

	return &Engine{
		id:        id,
		cfg:       opts.Config,
		prof:      opts.Profile,
		progress:  opts.Progress,
		policy:    policy.New(opts.Config.Policy, opts.Config.Planner, opts.Profile, rng, logger),
		journal:   opts.Journal,
		logger:    logger,
		bestOwnU:  -1,
		startedAt: time.Now(),
	}
}

// ID returns the session identifier.
func (e *Engine) ID() string {
	return e.id
}

// OnOpponentBid records an opponent bid, creating the opponent model lazily
// on the first one. Bids outside the domain are dropped and logged; the
// session continues.
func (e *Engine) OnOpponentBid(bid models.Bid) {
	if e.ended {
		return
	}
	if e.model == nil {
		e.model = opponent.NewModel(e.prof.Domain(), e.cfg.Opponent.Decay)
	}
	if err := e.model.Update(bid); err != nil {
		e.logger.Warn().Err(err).Str("bid", bid.String()).Msg("Dropping opponent bid")
		return
	}
	e.lastBid = bid
	e.haveLast = true
	e.logger.Debug().
		Str("bid", bid.String()).
		Float64("utility", e.prof.Utility(bid)).
		Int("observations", e.model.Observations()).
		Msg("Opponent bid recorded")
}

// OnTurn produces exactly one decision. It never panics out to the caller:
// an unexpected internal failure degrades to accepting anything above the
// reservation value, else re-offering the best bid offered so far.
func (e *Engine) OnTurn() (d models.Decision) {
	if e.ended {
		return e.fallbackDecision()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("Decision failed, using fallback")
			d = e.fallbackDecision()
			e.record(d)
		}
	}()

	t := e.progress.Get()
	d = e.policy.Decide(policy.Turn{
		Progress:       t,
		LastBid:        e.lastBid,
		HaveLast:       e.haveLast,
		Model:          e.model,
		RemainingTurns: e.progress.RemainingTurns(),
	})
	e.progress.Advance()
	e.record(d)

	if d.IsAccept() {
		logging.LogAgreement(e.logger, len(e.decisions), d.Utility, d.Bid.String())
	} else {
		predicted := 0.5
		if e.model != nil {
			predicted = e.model.PredictedUtility(d.Bid)
		}
		logging.LogOffer(e.logger, d.Phase.String(), t, d.Utility, predicted)
	}
	return d
}

// OnSessionEnd closes the session and persists its record through the
// journal store, if one is configured. Safe to call more than once; only
// the first call persists.
func (e *Engine) OnSessionEnd(outcome models.SessionOutcome) error {
	if e.ended {
		return nil
	}
	e.ended = true
	e.policy.ResetPlan()

	record := e.Record(outcome)
	e.logger.Info().
		Str("outcome", string(outcome)).
		Int("rounds", record.Rounds).
		Float64("utility", record.AgentUtility).
		Msg("Session ended")

	if e.journal == nil {
		return nil
	}
	return e.journal.SaveSession(record)
}

// Record assembles the session artifact for the journal.
func (e *Engine) Record(outcome models.SessionOutcome) *models.SessionRecord {
	record := &models.SessionRecord{
		ID:         e.id,
		DomainName: e.prof.Domain().Name(),
		StartedAt:  e.startedAt,
		EndedAt:    time.Now(),
		Outcome:    outcome,
		Rounds:     len(e.decisions),
		Decisions:  e.decisions,
	}
	if outcome == models.OutcomeAgreement && len(e.decisions) > 0 {
		last := e.decisions[len(e.decisions)-1]
		record.AgreementBid = last.Bid
		record.AgentUtility = e.prof.Utility(last.Bid)
		if e.model != nil {
			record.PredictedOppUtility = e.model.PredictedUtility(last.Bid)
		}
	}
	return record
}

// AcceptOpponentAgreement marks an agreement reached by the opponent
// accepting our last offer, so the journal records the agreed bid.
func (e *Engine) AcceptOpponentAgreement(bid models.Bid) {
	e.record(models.Accept(bid, e.prof.Utility(bid)))
}

func (e *Engine) record(d models.Decision) {
	e.decisions = append(e.decisions, d)
	if !d.IsAccept() && d.Utility > e.bestOwnU {
		e.bestOwn = d.Bid
		e.bestOwnU = d.Utility
	}
}

// fallbackDecision is the last resort: accept anything better than walking
// away, else re-offer the best bid we have made.
func (e *Engine) fallbackDecision() models.Decision {
	if e.haveLast {
		if u := e.prof.Utility(e.lastBid); u > e.prof.ReservationValue() {
			return models.Accept(e.lastBid, u)
		}
	}
	if e.bestOwnU >= 0 {
		return models.Offer(e.bestOwn, e.bestOwnU)
	}
	// Nothing offered yet: offer the reservation bid or the first bid of
	// the enumeration rather than fail to act.
	if bid, ok := e.prof.ReservationBid(); ok {
		return models.Offer(bid, e.prof.Utility(bid))
	}
	bid, _ := e.prof.Domain().Get(0)
	return models.Offer(bid, e.prof.Utility(bid))
}
