package models

import "time"

// ActionKind distinguishes the two decisions the engine can produce each turn.
type ActionKind string

const (
	ActionAccept ActionKind = "ACCEPT"
	ActionOffer  ActionKind = "OFFER"
)

// Decision is the engine's output for a single turn: either an acceptance of
// the opponent's last bid or a counter-offer.
type Decision struct {
	Kind      ActionKind
	Bid       Bid // the accepted bid, or the counter-offer
	Utility   float64
	Phase     Phase
	Progress  float64
	Timestamp time.Time
	Reasoning string
}

// Accept constructs an acceptance decision for the given bid.
func Accept(bid Bid, utility float64) Decision {
	return Decision{Kind: ActionAccept, Bid: bid, Utility: utility, Timestamp: time.Now()}
}

// Offer constructs a counter-offer decision.
func Offer(bid Bid, utility float64) Decision {
	return Decision{Kind: ActionOffer, Bid: bid, Utility: utility, Timestamp: time.Now()}
}

// IsAccept reports whether this decision accepts the opponent's bid.
func (d Decision) IsAccept() bool {
	return d.Kind == ActionAccept
}

// Phase identifies which region of the deadline the policy is operating in.
type Phase int

const (
	PhaseLearning Phase = iota
	PhaseDiscussion
	PhaseConcession
	PhaseTerminal
)

// String returns the phase name used in logs and the session journal.
func (p Phase) String() string {
	switch p {
	case PhaseLearning:
		return "LEARNING"
	case PhaseDiscussion:
		return "DISCUSSION"
	case PhaseConcession:
		return "CONCESSION"
	case PhaseTerminal:
		return "TERMINAL"
	default:
		return "UNKNOWN"
	}
}
