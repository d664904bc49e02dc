package models

import "time"

// SessionOutcome describes how a negotiation session ended.
type SessionOutcome string

const (
	OutcomeAgreement SessionOutcome = "AGREEMENT"
	OutcomeDeadline  SessionOutcome = "DEADLINE"
	OutcomeAborted   SessionOutcome = "ABORTED"
)

// SessionRecord is the per-session artifact persisted by the journal store
// when a session ends. It captures enough to review agent behavior offline.
type SessionRecord struct {
	ID                  string
	DomainName          string
	StartedAt           time.Time
	EndedAt             time.Time
	Outcome             SessionOutcome
	Rounds              int
	AgreementBid        Bid
	AgentUtility        float64
	PredictedOppUtility float64
	Decisions           []Decision
}

// SessionStats aggregates journal rows for reporting.
type SessionStats struct {
	TotalSessions int
	Agreements    int
	AgreementRate float64
	AvgUtility    float64
	AvgRounds     float64
	ByOutcome     map[string]int
}
