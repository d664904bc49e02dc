package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// domainFile is the on-disk JSON shape of a domain definition.
type domainFile struct {
	Name   string              `json:"name"`
	Issues map[string][]string `json:"issues"`
}

// LoadFile reads a domain definition from a JSON file.
func LoadFile(path string) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading domain file: %w", err)
	}
	var f domainFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing domain file %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = path
	}
	d, err := New(f.Name, f.Issues)
	if err != nil {
		return nil, fmt.Errorf("domain file %s: %w", path, err)
	}
	return d, nil
}
