package profile

import (
	"encoding/json"
	"os"

	"bilateral-negotiator/internal/domain"
	"bilateral-negotiator/internal/errors"
	"bilateral-negotiator/internal/models"
)

// profileFile is the on-disk JSON shape of a preference profile.
type profileFile struct {
	Weights        map[string]float64            `json:"weights"`
	ValueUtilities map[string]map[string]float64 `json:"value_utilities"`
	Reservation    map[string]string             `json:"reservation,omitempty"`
}

// LoadFile reads a linear-additive profile from a JSON file and validates it
// against the given domain.
func LoadFile(path string, dom *domain.Domain) (*LinearAdditive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewProfileError(path, "reading file", err)
	}
	var f profileFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.NewProfileError(path, "parsing JSON", err)
	}

	var reservation models.Bid
	if len(f.Reservation) > 0 {
		reservation = models.NewBid(f.Reservation)
	}

	p, err := NewLinearAdditive(dom, f.Weights, f.ValueUtilities, reservation)
	if err != nil {
		return nil, errors.NewProfileError(path, "validating profile", err)
	}
	return p, nil
}
