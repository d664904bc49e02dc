package policy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"bilateral-negotiator/internal/config"
	"bilateral-negotiator/internal/domain"
	"bilateral-negotiator/internal/models"
	"bilateral-negotiator/internal/opponent"
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

func testPolicy(t *testing.T) *Policy {
	t.Helper()
	cfg := config.Default()
	return New(cfg.Policy, cfg.Planner, testProfile(t), rand.New(rand.NewSource(1)), zerolog.Nop())
}

func bid(price, speed string) models.Bid {
	return models.NewBid(map[string]string{"price": price, "speed": speed})
}

func TestPhaseAt(t *testing.T) {
	boundaries := config.Default().Policy.PhaseBoundaries
	tests := []struct {
		progress float64
		want     models.Phase
	}{
		{0.0, models.PhaseLearning},
		{0.10, models.PhaseLearning},
		{0.15, models.PhaseDiscussion},
		{0.25, models.PhaseDiscussion},
		{0.40, models.PhaseConcession},
		{0.60, models.PhaseConcession},
		{0.90, models.PhaseTerminal},
		{0.95, models.PhaseTerminal},
		{1.0, models.PhaseTerminal},
	}
	for _, tt := range tests {
		if got := PhaseAt(tt.progress, boundaries); got != tt.want {
			t.Errorf("PhaseAt(%v) = %v, want %v", tt.progress, got, tt.want)
		}
	}
}

func TestScenarioDerivation(t *testing.T) {
	s := NewScenarios(0.3, 0.7)
	if s.HH != 0.3 || s.CH != 0.7 || s.HC != 1.0 {
		t.Errorf("scenarios = %+v, want HH=0.3 CH=0.7 HC=1.0", s)
	}
	if math.Abs(s.CC-0.85) > 1e-9 {
		t.Errorf("CC = %v, want 0.85", s.CC)
	}

	q := s.MixingWeight()
	if math.Abs(q-3.0/11.0) > 1e-9 {
		t.Errorf("mixing weight = %v, want %v", q, 3.0/11.0)
	}

	e := s.ExpectedFinalUtility()
	wantE := q*0.7 + (1-q)*0.85
	if math.Abs(e-wantE) > 1e-9 {
		t.Errorf("expected final utility = %v, want %v", e, wantE)
	}

	// Bound decays linearly from 1 at t=0 to e at t=1.
	if b := AcceptanceBound(0, 0.3, 0.7); math.Abs(b-1) > 1e-9 {
		t.Errorf("bound at t=0 = %v, want 1", b)
	}
	if b := AcceptanceBound(1, 0.3, 0.7); math.Abs(b-e) > 1e-9 {
		t.Errorf("bound at t=1 = %v, want %v", b, e)
	}
	if b := AcceptanceBound(0.5, 0.3, 0.7); math.Abs(b-(1-0.5*(1-e))) > 1e-9 {
		t.Errorf("bound at t=0.5 = %v, want %v", b, 1-0.5*(1-e))
	}
}

func TestMixingWeightDegenerateCase(t *testing.T) {
	// When holding out and conceding pay the opponent the same, the division
	// degenerates and the weight is pinned to 1.
	s := Scenarios{HH: 0.2, CC: 1.0, HC: 1.0, CH: 0.6}
	if q := s.MixingWeight(); q != 1 {
		t.Errorf("degenerate mixing weight = %v, want 1", q)
	}
	if e := s.ExpectedFinalUtility(); math.Abs(e-0.6) > 1e-9 {
		t.Errorf("degenerate expected final utility = %v, want CH=0.6", e)
	}
}

func TestAcceptanceBoundDecreasesOverTime(t *testing.T) {
	prev := math.Inf(1)
	for _, tp := range []float64{0, 0.25, 0.5, 0.75, 1} {
		b := AcceptanceBound(tp, 0.2, 0.5)
		if b > prev+1e-12 {
			t.Errorf("bound increased at t=%v: %v > %v", tp, b, prev)
		}
		prev = b
	}
}

func TestLearningPhaseDecisions(t *testing.T) {
	p := testPolicy(t)

	d := p.Decide(Turn{Progress: 0.05, LastBid: bid("high", "fast"), HaveLast: true})
	if !d.IsAccept() {
		t.Errorf("utility 0.95 in the learning phase should be accepted")
	}
	if d.Phase != models.PhaseLearning {
		t.Errorf("phase = %v, want learning", d.Phase)
	}

	d = p.Decide(Turn{Progress: 0.05, LastBid: bid("low", "slow"), HaveLast: true})
	if d.IsAccept() {
		t.Errorf("utility 0.05 in the learning phase should be countered")
	}
	// On a four-bid domain the sampler finds the optimum.
	if math.Abs(d.Utility-0.95) > 1e-9 {
		t.Errorf("counter utility = %v, want the best bid at 0.95", d.Utility)
	}
}

func TestDiscussionPhaseDecisions(t *testing.T) {
	p := testPolicy(t)

	d := p.Decide(Turn{Progress: 0.2, LastBid: bid("high", "fast"), HaveLast: true})
	if !d.IsAccept() {
		t.Errorf("utility 0.95 in the discussion phase should be accepted")
	}

	// Counter-offers stay above the floor; with the default configuration the
	// static minimum 0.6 dominates the decreasing term throughout the phase.
	for i := 0; i < 20; i++ {
		d = p.Decide(Turn{Progress: 0.3, LastBid: bid("low", "slow"), HaveLast: true})
		if d.IsAccept() {
			t.Fatalf("utility 0.05 in the discussion phase should be countered")
		}
		if d.Utility <= 0.6 {
			t.Errorf("discussion offer utility %v at or below the floor 0.6", d.Utility)
		}
	}
}

func TestDiscussionFloorClamped(t *testing.T) {
	cfg := config.Default()
	cfg.Policy.PhaseBoundaries = []float64{0.15, 1.5, 1.6}
	p := New(cfg.Policy, cfg.Planner, testProfile(t), rand.New(rand.NewSource(1)), zerolog.Nop())

	if floor := p.discussionFloor(0.1); floor != 1 {
		t.Errorf("floor = %v, want clamp to 1 for out-of-range boundaries", floor)
	}

	cfg.Policy.PhaseBoundaries = []float64{0.9, 0.0, 0.95}
	p = New(cfg.Policy, cfg.Planner, testProfile(t), rand.New(rand.NewSource(1)), zerolog.Nop())
	if floor := p.discussionFloor(1.0); floor < 0 || floor > 1 {
		t.Errorf("floor = %v, want a value in [0,1]", floor)
	}
}

func TestDiscussionFallbackOffersExactBest(t *testing.T) {
	// Boundaries that clamp the floor to 1 leave nothing above it, and a
	// sample budget of 1 would make a sampled fallback a single random draw.
	// The fallback must instead be the exact utility maximum.
	cfg := config.Default()
	cfg.Policy.PhaseBoundaries = []float64{0.15, 1.5, 1.6}
	cfg.Policy.SampleBudget = 1
	p := New(cfg.Policy, cfg.Planner, testProfile(t), rand.New(rand.NewSource(1)), zerolog.Nop())

	for i := 0; i < 10; i++ {
		d := p.Decide(Turn{Progress: 0.2})
		if d.IsAccept() {
			t.Fatalf("nothing to accept without an opponent bid")
		}
		if !d.Bid.Equal(bid("high", "fast")) || d.Utility != 0.95 {
			t.Errorf("fallback offer = %s (utility %v), want the exact best bid at 0.95", d.Bid, d.Utility)
		}
	}
}

func TestConcessionPhaseDecisions(t *testing.T) {
	p := testPolicy(t)

	// With no opponent model the scenarios collapse to E=0 and the bound at
	// t=0.6 is 0.4.
	d := p.Decide(Turn{Progress: 0.6, LastBid: bid("high", "fast"), HaveLast: true})
	if !d.IsAccept() {
		t.Errorf("utility 0.95 above the bound 0.4 should be accepted")
	}

	d = p.Decide(Turn{Progress: 0.6, LastBid: bid("low", "slow"), HaveLast: true})
	if d.IsAccept() {
		t.Errorf("utility 0.05 below the bound 0.4 should be countered")
	}
	if d.Phase != models.PhaseConcession {
		t.Errorf("phase = %v, want concession", d.Phase)
	}
}

func TestJointSampleFallsBackToJointMaximizer(t *testing.T) {
	p := testPolicy(t)

	// With no model, J = selfFactor * u and selfFactor > 1, so no bid's own
	// utility reaches the joint maximum and the single maximizer is offered.
	got := p.jointSample(Turn{Progress: 0.6})
	if !got.Equal(bid("high", "fast")) {
		t.Errorf("joint sample fallback = %s, want the best own bid", got)
	}
}

func TestJointSampleUsesModel(t *testing.T) {
	p := testPolicy(t)
	model := opponent.NewModel(testProfile(t).Domain(), 0)
	if err := model.Update(bid("low", "fast")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := p.jointSample(Turn{Progress: 0.6, Model: model})
	if err := p.prof.Domain().Contains(got); err != nil {
		t.Errorf("joint sample produced an out-of-domain bid: %v", err)
	}
}

func TestJointSampleBreaksTieByTradeoffScore(t *testing.T) {
	// Single issue, two values. With counts v1:11, v2:20 the model predicts
	// 0.55 and 1.0, so at t=0 both bids share J = 1.8*0.5 + 0.55 =
	// 1.8*0.25 + 1.0 = 1.45. Early time pressure makes the trade-off score
	// prefer the bid with the higher own utility.
	dom, err := domain.New("tie", map[string][]string{"issue": {"v1", "v2"}})
	if err != nil {
		t.Fatalf("building domain: %v", err)
	}
	prof, err := profile.NewLinearAdditive(dom,
		map[string]float64{"issue": 1.0},
		map[string]map[string]float64{"issue": {"v1": 0.5, "v2": 0.25}},
		models.Bid{},
	)
	if err != nil {
		t.Fatalf("building profile: %v", err)
	}

	model := opponent.NewModel(dom, 0)
	v1 := models.NewBid(map[string]string{"issue": "v1"})
	v2 := models.NewBid(map[string]string{"issue": "v2"})
	for i := 0; i < 11; i++ {
		if err := model.Update(v1); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	for i := 0; i < 20; i++ {
		if err := model.Update(v2); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	cfg := config.Default()
	p := New(cfg.Policy, cfg.Planner, prof, rand.New(rand.NewSource(1)), zerolog.Nop())
	got := p.jointSample(Turn{Progress: 0, Model: model})
	if !got.Equal(v1) {
		t.Errorf("tie on joint utility broke toward %s, want %s", got, v1)
	}
}

func TestTerminalPhaseBuildsAndConsumesPlan(t *testing.T) {
	p := testPolicy(t)
	model := opponent.NewModel(testProfile(t).Domain(), 0)
	if err := model.Update(bid("low", "fast")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if p.CurrentPlan() != nil {
		t.Fatal("plan exists before the terminal phase")
	}

	d := p.Decide(Turn{Progress: 0.92, Model: model, RemainingTurns: 5})
	if d.IsAccept() {
		t.Error("no opponent bid to accept on the first terminal turn")
	}
	if d.Phase != models.PhaseTerminal {
		t.Errorf("phase = %v, want terminal", d.Phase)
	}
	if p.CurrentPlan() == nil {
		t.Fatal("terminal turn did not build a plan")
	}

	// The terminal bound tracks the plan's expected utility, so a bid above
	// it is accepted instead of continuing the plan.
	d = p.Decide(Turn{Progress: 0.95, LastBid: bid("high", "fast"), HaveLast: true, Model: model, RemainingTurns: 4})
	if !d.IsAccept() {
		t.Error("near-perfect bid late in the terminal phase should be accepted")
	}

	p.ResetPlan()
	if p.CurrentPlan() != nil {
		t.Error("ResetPlan left a plan behind")
	}
}

func TestDecideAlwaysProducesABid(t *testing.T) {
	p := testPolicy(t)
	for _, progress := range []float64{0, 0.1, 0.2, 0.5, 0.91, 0.99, 1.0} {
		d := p.Decide(Turn{Progress: progress, RemainingTurns: 3})
		if d.Bid.IsZero() {
			t.Errorf("no bid produced at progress %v", progress)
		}
		if d.Progress != progress {
			t.Errorf("decision progress = %v, want %v", d.Progress, progress)
		}
	}
}
