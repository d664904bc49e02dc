package policy

// Scenarios holds the four outcome utilities of the symmetric
// hardliner/conceder game the acceptance rule is built on: both sides hold
// out, both concede, we hold out while they concede, and the reverse.
type Scenarios struct {
	HH float64 // both hardliners: no agreement, reservation value
	CC float64 // both conceders: split between best concession and full value
	HC float64 // we hold, they concede: full value
	CH float64 // we concede, they hold: their best offer so far
}

// NewScenarios derives the scenario utilities from the reservation value and
// the best own-utility the opponent has offered so far.
func NewScenarios(reserve, bestObserved float64) Scenarios {
	concede := reserve
	if bestObserved > concede {
		concede = bestObserved
	}
	return Scenarios{
		HH: reserve,
		CC: 0.5*concede + 0.5,
		HC: 1.0,
		CH: concede,
	}
}

// MixingWeight returns the equilibrium probability q of the opponent playing
// conceder. When holding out dominates conceding for them (HC == CC) the
// division degenerates and q is 1: fully conceder-favorable.
func (s Scenarios) MixingWeight() float64 {
	if s.HC == s.CC {
		return 1
	}
	return 1 / (1 + (s.CH-s.HH)/(s.HC-s.CC))
}

// ExpectedFinalUtility is the expected utility of playing the equilibrium
// mix to the end of the session.
func (s Scenarios) ExpectedFinalUtility() float64 {
	q := s.MixingWeight()
	return q*s.CH + (1-q)*s.CC
}

// AcceptanceBound returns the time-decaying utility bound alpha(t): early in
// the session it stays near 1, and decays linearly toward the expected final
// utility as the deadline arrives. A bid is acceptable when its own utility
// exceeds this bound.
func AcceptanceBound(t, reserve, bestObserved float64) float64 {
	e := NewScenarios(reserve, bestObserved).ExpectedFinalUtility()
	return boundAt(t, e)
}

// boundAt decays the acceptance bound from 1 at t=0 to the expected final
// utility e at t=1.
func boundAt(t, e float64) float64 {
	return 1 - t*(1-e)
}
