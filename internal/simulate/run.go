package simulate

import (
	"math/rand"

	"github.com/rs/zerolog"

	"bilateral-negotiator/internal/domain"
	"bilateral-negotiator/internal/models"
	"bilateral-negotiator/internal/profile"
	"bilateral-negotiator/internal/session"
)

// Result summarizes a finished self-play session.
type Result struct {
	Outcome         models.SessionOutcome
	Rounds          int
	AgreementBid    models.Bid
	AgentUtility    float64
	OpponentUtility float64
}

// Run plays a full session between the engine and a simulated opponent under
// a round-bounded deadline. The opponent opens each round; the engine
// responds with accept or a counter-offer, which the opponent may take.
func Run(eng *session.Engine, opp Opponent, rounds int, logger zerolog.Logger) (*Result, error) {
	result := &Result{Outcome: models.OutcomeDeadline}

	for r := 0; r < rounds; r++ {
		t := float64(r) / float64(rounds)

		oppBid := opp.Propose(t)
		eng.OnOpponentBid(oppBid)

		d := eng.OnTurn()
		result.Rounds = r + 1

		if d.IsAccept() {
			result.Outcome = models.OutcomeAgreement
			result.AgreementBid = d.Bid
			result.AgentUtility = d.Utility
			result.OpponentUtility = opp.Utility(d.Bid)
			break
		}

		if opp.Accepts(t, d.Bid) {
			logger.Info().
				Str("opponent", opp.Name()).
				Str("bid", d.Bid.String()).
				Msg("Opponent accepted our offer")
			eng.AcceptOpponentAgreement(d.Bid)
			result.Outcome = models.OutcomeAgreement
			result.AgreementBid = d.Bid
			result.AgentUtility = d.Utility
			result.OpponentUtility = opp.Utility(d.Bid)
			break
		}
	}

	if err := eng.OnSessionEnd(result.Outcome); err != nil {
		return result, err
	}
	return result, nil
}

// RandomProfile generates a random linear-additive profile over a domain,
// normalized so each issue's best value scores 1. Used by the demo runner
// when no profile file is given.
func RandomProfile(dom *domain.Domain, rng *rand.Rand) (*profile.LinearAdditive, error) {
	issues := dom.Issues()

	rawWeights := make(map[string]float64, len(issues))
	var weightSum float64
	for _, issue := range issues {
		w := 0.1 + rng.Float64()
		rawWeights[issue] = w
		weightSum += w
	}
	weights := make(map[string]float64, len(issues))
	var acc float64
	for i, issue := range issues {
		if i == len(issues)-1 {
			// Absorb rounding error so the weights sum to exactly 1.
			weights[issue] = 1 - acc
			break
		}
		w := rawWeights[issue] / weightSum
		weights[issue] = w
		acc += w
	}

	valueUtils := make(map[string]map[string]float64, len(issues))
	for _, issue := range issues {
		values, err := dom.Values(issue)
		if err != nil {
			return nil, err
		}
		utils := make(map[string]float64, len(values))
		var max float64
		for _, v := range values {
			u := rng.Float64()
			utils[v] = u
			if u > max {
				max = u
			}
		}
		if max > 0 {
			for v := range utils {
				utils[v] /= max
			}
		}
		valueUtils[issue] = utils
	}

	return profile.NewLinearAdditive(dom, weights, valueUtils, models.Bid{})
}
