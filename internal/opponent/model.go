// Package opponent implements the online opponent preference model. It
// estimates, from the sequence of bids the opponent has proposed, how much
// the opponent values each issue and value, without any signal beyond the
// bids themselves.
package opponent

import (
	"bilateral-negotiator/internal/domain"
	"bilateral-negotiator/internal/models"
)

// neutralEstimate is returned before any bid has been observed: with no
// information the model has no reason to call any bid good or bad.
const neutralEstimate = 0.5

// Model accumulates per-issue value-frequency histograms over the opponent's
// bid history. Weights are recomputed from raw counts on every read so that
// no cached estimate can go stale (see Estimator).
type Model struct {
	dom        *domain.Domain
	history    []models.Bid
	estimators map[string]*Estimator
	decay      float64
}

// NewModel creates an opponent model for a domain. decay in [0,1) shrinks
// existing counts before each new observation; 0 keeps the histogram
// strictly accumulating, which matches the calibrated agent.
func NewModel(dom *domain.Domain, decay float64) *Model {
	estimators := make(map[string]*Estimator, len(dom.Issues()))
	for _, issue := range dom.Issues() {
		values, _ := dom.Values(issue)
		estimators[issue] = newEstimator(values, decay)
	}
	return &Model{dom: dom, estimators: estimators, decay: decay}
}

// Update records an opponent bid and increments the frequency of each of its
// values. Bids outside the domain are rejected with a DomainMismatchError
// and leave the model untouched; duplicates simply reinforce the estimate.
func (m *Model) Update(bid models.Bid) error {
	if err := m.dom.Contains(bid); err != nil {
		return err
	}
	m.history = append(m.history, bid)
	for issue, est := range m.estimators {
		value, _ := bid.Value(issue)
		est.observe(value)
	}
	return nil
}

// PredictedUtility estimates the opponent's utility for a bid, in [0,1].
// It is the issue-weighted combination of per-value frequency scores, with
// weights normalized so the best possible bid scores 1. Before the first
// observation it returns a neutral constant.
func (m *Model) PredictedUtility(bid models.Bid) float64 {
	if len(m.history) == 0 {
		return neutralEstimate
	}

	var totalWeight, weighted float64
	for _, issue := range m.dom.Issues() {
		totalWeight += m.estimators[issue].weight()
	}

	for _, issue := range m.dom.Issues() {
		value, ok := bid.Value(issue)
		if !ok {
			continue
		}
		est := m.estimators[issue]
		weighted += est.weight() / totalWeight * est.valueUtility(value)
	}
	return clamp01(weighted)
}

// ValueUtility returns the estimated opponent utility of a single value for
// an issue, independent of any particular bid. Unknown issues score 0.
func (m *Model) ValueUtility(issue, value string) float64 {
	est, ok := m.estimators[issue]
	if !ok {
		return 0
	}
	return est.valueUtility(value)
}

// BestObservedUtility returns the highest own-side utility among the
// opponent's bids so far according to the supplied utility function, or 0
// when no bid has been observed. The equilibrium acceptance rule uses this
// as the opponent's best concession to date.
func (m *Model) BestObservedUtility(utility func(models.Bid) float64) float64 {
	var best float64
	for _, bid := range m.history {
		if u := utility(bid); u > best {
			best = u
		}
	}
	return best
}

// Observations returns the number of opponent bids recorded.
func (m *Model) Observations() int {
	return len(m.history)
}

// History returns the opponent's bids in arrival order. The returned slice
// must not be mutated.
func (m *Model) History() []models.Bid {
	return m.history
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
