// Package planner implements the terminal-phase offer planner. Given a
// budget of remaining turns it selects and orders the sequence of future
// offers that maximizes expected utility, treating the opponent's predicted
// utility for each bid as its acceptance probability.
package planner

import (
	"fmt"

	"bilateral-negotiator/internal/models"
)

// BidInfo is a candidate bid annotated with the agent's own utility U and
// the estimated acceptance probability P, plus a selection mark used by the
// construction loop.
type BidInfo struct {
	Bid models.Bid
	U   float64
	P   float64

	selected bool
}

// NewBidInfo creates a candidate, clamping the acceptance probability into
// [0,1] so degenerate model estimates cannot corrupt the plan arithmetic.
func NewBidInfo(bid models.Bid, u, p float64) *BidInfo {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &BidInfo{Bid: bid, U: u, P: p}
}

// Payoff is the expected immediate value of offering this bid once.
func (b *BidInfo) Payoff() float64 {
	return b.U * b.P
}

// Selected reports whether this candidate is part of the current plan.
func (b *BidInfo) Selected() bool {
	return b.selected
}

func (b *BidInfo) String() string {
	return fmt.Sprintf("BidInfo(bid=%s, u=%.3f, p=%.3f)", b.Bid, b.U, b.P)
}
