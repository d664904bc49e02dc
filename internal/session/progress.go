package session

import "time"

// Progress is the deadline clock: it reports elapsed negotiation time as a
// fraction in [0,1] and, when the protocol bounds the session in rounds, how
// many of our offer turns remain.
type Progress interface {
	Get() float64
	// RemainingTurns returns the number of own turns left, or 0 when the
	// deadline is purely time-based and the count is unknown.
	RemainingTurns() int
	// Advance marks one own turn as consumed.
	Advance()
}

// RoundProgress tracks a round-bounded deadline: progress advances in equal
// steps per turn and the remaining-turn count is exact.
type RoundProgress struct {
	total   int
	current int
}

// NewRoundProgress creates a round-based clock over the given total number
// of own turns.
func NewRoundProgress(total int) *RoundProgress {
	if total < 1 {
		total = 1
	}
	return &RoundProgress{total: total}
}

func (p *RoundProgress) Get() float64 {
	t := float64(p.current) / float64(p.total)
	if t > 1 {
		return 1
	}
	return t
}

func (p *RoundProgress) RemainingTurns() int {
	remaining := p.total - p.current
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (p *RoundProgress) Advance() {
	p.current++
}

// TimeProgress tracks a wall-clock deadline. The remaining-turn count is
// unknown, so callers fall back to a configured estimate.
type TimeProgress struct {
	start    time.Time
	duration time.Duration
	now      func() time.Time
}

// NewTimeProgress creates a wall-clock deadline starting now.
func NewTimeProgress(duration time.Duration) *TimeProgress {
	return &TimeProgress{start: time.Now(), duration: duration, now: time.Now}
}

func (p *TimeProgress) Get() float64 {
	if p.duration <= 0 {
		return 1
	}
	t := float64(p.now().Sub(p.start)) / float64(p.duration)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func (p *TimeProgress) RemainingTurns() int { return 0 }

func (p *TimeProgress) Advance() {}
