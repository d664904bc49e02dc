package opponent

// Estimator tracks the value-frequency histogram of a single issue. Counts
// are float64 so the optional decay can shrink them smoothly; without decay
// they are plain integers in disguise and never decrease.
type Estimator struct {
	counts   map[string]float64
	observed float64
	decay    float64
}

func newEstimator(values []string, decay float64) *Estimator {
	counts := make(map[string]float64, len(values))
	for _, v := range values {
		counts[v] = 0
	}
	return &Estimator{counts: counts, decay: decay}
}

// observe increments the count for a value, applying decay to the existing
// histogram first when configured.
func (e *Estimator) observe(value string) {
	if e.decay > 0 {
		for v := range e.counts {
			e.counts[v] *= 1 - e.decay
		}
		e.observed *= 1 - e.decay
	}
	e.counts[value]++
	e.observed++
}

// valueUtility scores a value by its frequency relative to the most frequent
// value of this issue: the modal value scores 1, unseen values score 0. The
// score is monotonically non-decreasing in the value's own count.
func (e *Estimator) valueUtility(value string) float64 {
	max := e.maxCount()
	if max == 0 {
		return 0
	}
	return e.counts[value] / max
}

// weight measures how concentrated the observations are on few values, as
// the sum of squared value shares. An opponent that keeps proposing the same
// value for an issue reveals that the issue matters to it: weight approaches
// 1. Observations spread evenly across k values approach 1/k, never 0, so an
// observed issue always keeps a say in the prediction and one more sighting
// of a value cannot erase the issue's contribution.
func (e *Estimator) weight() float64 {
	if e.observed == 0 {
		return 0
	}
	var w float64
	for _, c := range e.counts {
		share := c / e.observed
		w += share * share
	}
	return w
}

func (e *Estimator) maxCount() float64 {
	var max float64
	for _, c := range e.counts {
		if c > max {
			max = c
		}
	}
	return max
}
