package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bilateral-negotiator/internal/config"
	"bilateral-negotiator/internal/domain"
	"bilateral-negotiator/internal/models"
	"bilateral-negotiator/internal/profile"
)

func testProfile(t *testing.T) *profile.LinearAdditive {
	t.Helper()
	dom, err := domain.New("test", map[string][]string{
		"price": {"high", "low"},
		"speed": {"fast", "slow"},
	})
	if err != nil {
		t.Fatalf("building domain: %v", err)
	}
	prof, err := profile.NewLinearAdditive(dom,
		map[string]float64{"price": 0.5, "speed": 0.5},
		map[string]map[string]float64{
			"price": {"high": 1.0, "low": 0.0},
			"speed": {"fast": 0.9, "slow": 0.1},
		},
		models.Bid{},
	)
	if err != nil {
		t.Fatalf("building profile: %v", err)
	}
	return prof
}

func testEngine(t *testing.T, rounds int) *Engine {
	t.Helper()
	return New(Options{
		ID:       "test-session",
		Config:   config.Default(),
		Profile:  testProfile(t),
		Progress: NewRoundProgress(rounds),
		Rng:      rand.New(rand.NewSource(1)),
		Logger:   zerolog.Nop(),
	})
}

func TestRoundProgress(t *testing.T) {
	p := NewRoundProgress(4)
	if p.Get() != 0 {
		t.Errorf("initial progress = %v, want 0", p.Get())
	}
	if p.RemainingTurns() != 4 {
		t.Errorf("initial remaining = %d, want 4", p.RemainingTurns())
	}

	p.Advance()
	p.Advance()
	if p.Get() != 0.5 {
		t.Errorf("progress after 2 of 4 turns = %v, want 0.5", p.Get())
	}
	if p.RemainingTurns() != 2 {
		t.Errorf("remaining after 2 turns = %d, want 2", p.RemainingTurns())
	}

	// Advancing past the deadline clamps instead of overshooting.
	for i := 0; i < 5; i++ {
		p.Advance()
	}
	if p.Get() != 1 {
		t.Errorf("progress past the deadline = %v, want 1", p.Get())
	}
	if p.RemainingTurns() != 0 {
		t.Errorf("remaining past the deadline = %d, want 0", p.RemainingTurns())
	}
}

func TestTimeProgress(t *testing.T) {
	start := time.Now()
	clock := start
	p := &TimeProgress{
		start:    start,
		duration: time.Minute,
		now:      func() time.Time { return clock },
	}

	if p.Get() != 0 {
		t.Errorf("progress at start = %v, want 0", p.Get())
	}
	clock = start.Add(30 * time.Second)
	if p.Get() != 0.5 {
		t.Errorf("progress at half time = %v, want 0.5", p.Get())
	}
	clock = start.Add(2 * time.Minute)
	if p.Get() != 1 {
		t.Errorf("progress past the deadline = %v, want 1", p.Get())
	}
	if p.RemainingTurns() != 0 {
		t.Errorf("wall-clock remaining turns = %d, want 0", p.RemainingTurns())
	}
}

func TestEngineAcceptsExcellentOpeningBid(t *testing.T) {
	eng := testEngine(t, 10)

	eng.OnOpponentBid(models.NewBid(map[string]string{"price": "high", "speed": "fast"}))
	d := eng.OnTurn()
	if !d.IsAccept() {
		t.Fatalf("utility 0.95 at progress 0 should be accepted, got %v", d.Kind)
	}

	if err := eng.OnSessionEnd(models.OutcomeAgreement); err != nil {
		t.Fatalf("OnSessionEnd: %v", err)
	}

	record := eng.Record(models.OutcomeAgreement)
	if record.ID != "test-session" {
		t.Errorf("record ID = %q", record.ID)
	}
	if record.Rounds != 1 {
		t.Errorf("record rounds = %d, want 1", record.Rounds)
	}
	if record.AgentUtility != 0.95 {
		t.Errorf("record agent utility = %v, want 0.95", record.AgentUtility)
	}
	if record.AgreementBid.IsZero() {
		t.Error("record is missing the agreement bid")
	}
}

func TestEngineDropsOutOfDomainBids(t *testing.T) {
	eng := testEngine(t, 10)

	eng.OnOpponentBid(models.NewBid(map[string]string{"price": "free"}))
	eng.OnOpponentBid(models.NewBid(map[string]string{"color": "red", "speed": "fast"}))

	if eng.haveLast {
		t.Error("a dropped bid must not become the last bid")
	}
	if eng.model.Observations() != 0 {
		t.Errorf("model recorded %d observations from invalid bids", eng.model.Observations())
	}

	// The session continues and the turn still produces an offer.
	d := eng.OnTurn()
	if d.IsAccept() {
		t.Error("nothing to accept after all opponent bids were dropped")
	}
	if d.Bid.IsZero() {
		t.Error("turn produced no bid")
	}
}

func TestEngineDecidesEveryTurnToDeadline(t *testing.T) {
	eng := testEngine(t, 20)
	low := models.NewBid(map[string]string{"price": "low", "speed": "slow"})

	for i := 0; i < 20; i++ {
		eng.OnOpponentBid(low)
		d := eng.OnTurn()
		if d.IsAccept() {
			t.Fatalf("turn %d accepted a 0.05-utility bid", i)
		}
		if d.Bid.IsZero() {
			t.Fatalf("turn %d produced no bid", i)
		}
	}

	if err := eng.OnSessionEnd(models.OutcomeDeadline); err != nil {
		t.Fatalf("OnSessionEnd: %v", err)
	}
	record := eng.Record(models.OutcomeDeadline)
	if record.Rounds != 20 {
		t.Errorf("record rounds = %d, want 20", record.Rounds)
	}
	if !record.AgreementBid.IsZero() {
		t.Error("deadline record must not carry an agreement bid")
	}
}

func TestEngineFallbackAfterSessionEnd(t *testing.T) {
	eng := testEngine(t, 10)
	if err := eng.OnSessionEnd(models.OutcomeAborted); err != nil {
		t.Fatalf("OnSessionEnd: %v", err)
	}

	// Ending twice is a no-op, and turns after the end still yield a usable
	// decision instead of failing.
	if err := eng.OnSessionEnd(models.OutcomeAborted); err != nil {
		t.Fatalf("second OnSessionEnd: %v", err)
	}
	d := eng.OnTurn()
	if d.Bid.IsZero() {
		t.Error("post-end turn produced no bid")
	}
}

func TestOpponentAcceptanceIsRecorded(t *testing.T) {
	eng := testEngine(t, 10)
	agreed := models.NewBid(map[string]string{"price": "high", "speed": "slow"})

	eng.AcceptOpponentAgreement(agreed)
	record := eng.Record(models.OutcomeAgreement)
	if !record.AgreementBid.Equal(agreed) {
		t.Errorf("agreement bid = %s, want %s", record.AgreementBid, agreed)
	}
	if record.AgentUtility != 0.55 {
		t.Errorf("agent utility = %v, want 0.55", record.AgentUtility)
	}
}
