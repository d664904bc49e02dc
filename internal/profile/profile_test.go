package profile

import (
	"math"
	"testing"

	"bilateral-negotiator/internal/domain"
	apperrors "bilateral-negotiator/internal/errors"
	"bilateral-negotiator/internal/models"
)

func testDomain(t *testing.T) *domain.Domain {
	t.Helper()
	dom, err := domain.New("party", map[string][]string{
		"drinks":   {"beer", "wine"},
		"location": {"park", "hall"},
	})
	if err != nil {
		t.Fatalf("building domain: %v", err)
	}
	return dom
}

func validWeights() map[string]float64 {
	return map[string]float64{"drinks": 0.7, "location": 0.3}
}

func validUtils() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"drinks":   {"beer": 1.0, "wine": 0.4},
		"location": {"park": 0.8, "hall": 1.0},
	}
}

func TestLinearAdditiveUtility(t *testing.T) {
	prof, err := NewLinearAdditive(testDomain(t), validWeights(), validUtils(), models.Bid{})
	if err != nil {
		t.Fatalf("NewLinearAdditive: %v", err)
	}

	bid := models.NewBid(map[string]string{"drinks": "beer", "location": "park"})
	want := 0.7*1.0 + 0.3*0.8
	if u := prof.Utility(bid); math.Abs(u-want) > 1e-9 {
		t.Errorf("utility = %v, want %v", u, want)
	}

	// Partial bids score only the issues they assign.
	partial := models.NewBid(map[string]string{"drinks": "wine"})
	if u := prof.Utility(partial); math.Abs(u-0.7*0.4) > 1e-9 {
		t.Errorf("partial bid utility = %v, want %v", u, 0.7*0.4)
	}

	if u := prof.ValueUtility("location", "hall"); u != 1.0 {
		t.Errorf("ValueUtility(location, hall) = %v, want 1", u)
	}
	if u := prof.ValueUtility("music", "live"); u != 0 {
		t.Errorf("unknown issue scored %v, want 0", u)
	}
}

func TestValidationRejectsMalformedProfiles(t *testing.T) {
	dom := testDomain(t)

	badWeights := map[string]float64{"drinks": 0.7, "location": 0.7}
	if _, err := NewLinearAdditive(dom, badWeights, validUtils(), models.Bid{}); !apperrors.Is(err, apperrors.ErrProfileInvalid) {
		t.Errorf("weights summing to 1.4 accepted, err = %v", err)
	}

	missing := map[string]float64{"drinks": 1.0}
	if _, err := NewLinearAdditive(dom, missing, validUtils(), models.Bid{}); !apperrors.Is(err, apperrors.ErrProfileInvalid) {
		t.Errorf("missing issue weight accepted, err = %v", err)
	}

	utils := validUtils()
	utils["drinks"]["beer"] = 1.3
	if _, err := NewLinearAdditive(dom, validWeights(), utils, models.Bid{}); !apperrors.Is(err, apperrors.ErrProfileInvalid) {
		t.Errorf("out-of-range value utility accepted, err = %v", err)
	}

	utils = validUtils()
	delete(utils["location"], "hall")
	if _, err := NewLinearAdditive(dom, validWeights(), utils, models.Bid{}); !apperrors.Is(err, apperrors.ErrProfileInvalid) {
		t.Errorf("missing value utility accepted, err = %v", err)
	}
}

func TestReservationBid(t *testing.T) {
	dom := testDomain(t)

	prof, err := NewLinearAdditive(dom, validWeights(), validUtils(), models.Bid{})
	if err != nil {
		t.Fatalf("NewLinearAdditive: %v", err)
	}
	if _, ok := prof.ReservationBid(); ok {
		t.Error("reservation bid reported without one configured")
	}
	if prof.ReservationValue() != 0 {
		t.Errorf("reservation value = %v, want 0 without a reservation bid", prof.ReservationValue())
	}

	reserve := models.NewBid(map[string]string{"drinks": "wine", "location": "park"})
	prof, err = NewLinearAdditive(dom, validWeights(), validUtils(), reserve)
	if err != nil {
		t.Fatalf("NewLinearAdditive with reservation: %v", err)
	}
	got, ok := prof.ReservationBid()
	if !ok || !got.Equal(reserve) {
		t.Errorf("reservation bid = %s, %v; want %s, true", got, ok, reserve)
	}
	want := 0.7*0.4 + 0.3*0.8
	if v := prof.ReservationValue(); math.Abs(v-want) > 1e-9 {
		t.Errorf("reservation value = %v, want %v", v, want)
	}

	// A reservation bid outside the domain is a configuration error.
	bad := models.NewBid(map[string]string{"drinks": "cola", "location": "park"})
	if _, err := NewLinearAdditive(dom, validWeights(), validUtils(), bad); err == nil {
		t.Error("out-of-domain reservation bid accepted")
	}
}
