package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Bilateral Negotiator Configuration

[policy]
# Phase boundaries over deadline progress, strictly increasing
phase_boundaries = [0.15, 0.40, 0.90]
# Learning-phase acceptance threshold on own utility
learning_accept = 0.9
# Discussion-phase acceptance threshold on own utility
discussion_accept = 0.8
# Lower bound for the discussion-phase offer floor
discussion_floor_min = 0.6
# Random draws used when sampling bids from the outcome space
sample_budget = 500
# Joint score self-interest weight and its quadratic time discount
joint_self_weight = 1.8
joint_time_weight = 0.3

[opponent]
# Frequency decay applied before each new observation; 0 disables decay
decay = 0.0

[planner]
# A value survives candidate generation when either side scores it above this
sensibility_threshold = 0.4
# Remaining-turn budget assumed when the clock is purely time-based
turn_estimate = 10

[session]
# Number of rounds for self-play sessions
rounds = 100
# Paths to the domain and preference profile JSON files
domain_path = ""
profile_path = ""
# Session journal database
journal_db = ""
# Random seed; 0 seeds from the current time
seed = 0

[ui]
# Enable colored output
color_enabled = true
# Time format
time_format = "15:04:05"
`

// createTemplateConfig writes a commented config template so the user can
// edit it rather than guessing key names.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
