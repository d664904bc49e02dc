package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"too few boundaries", func(c *Config) { c.Policy.PhaseBoundaries = []float64{0.2, 0.5} }},
		{"non-increasing boundaries", func(c *Config) { c.Policy.PhaseBoundaries = []float64{0.4, 0.4, 0.9} }},
		{"boundary above 1", func(c *Config) { c.Policy.PhaseBoundaries = []float64{0.15, 0.4, 1.5} }},
		{"boundary at 0", func(c *Config) { c.Policy.PhaseBoundaries = []float64{0, 0.4, 0.9} }},
		{"learning accept above 1", func(c *Config) { c.Policy.LearningAccept = 1.2 }},
		{"negative discussion accept", func(c *Config) { c.Policy.DiscussionAccept = -0.1 }},
		{"zero sample budget", func(c *Config) { c.Policy.SampleBudget = 0 }},
		{"decay of 1", func(c *Config) { c.Opponent.Decay = 1 }},
		{"threshold above 1", func(c *Config) { c.Planner.SensibilityThreshold = 1.5 }},
		{"zero turn estimate", func(c *Config) { c.Planner.TurnEstimate = 0 }},
		{"zero rounds", func(c *Config) { c.Session.Rounds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("invalid configuration accepted")
			}
		})
	}
}

func TestLoadCreatesTemplateAndReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Policy.LearningAccept != 0.9 {
		t.Errorf("learning_accept = %v, want the default 0.9", cfg.Policy.LearningAccept)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("template config.toml not created: %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[policy]
learning_accept = 0.85
sample_budget = 250

[session]
rounds = 40
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Policy.LearningAccept != 0.85 {
		t.Errorf("learning_accept = %v, want 0.85 from the file", cfg.Policy.LearningAccept)
	}
	if cfg.Policy.SampleBudget != 250 {
		t.Errorf("sample_budget = %d, want 250 from the file", cfg.Policy.SampleBudget)
	}
	if cfg.Session.Rounds != 40 {
		t.Errorf("rounds = %d, want 40 from the file", cfg.Session.Rounds)
	}
	// Untouched keys keep their defaults.
	if cfg.Policy.DiscussionAccept != 0.8 {
		t.Errorf("discussion_accept = %v, want the default 0.8", cfg.Policy.DiscussionAccept)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NEGOTIATOR_ROUNDS", "25")
	t.Setenv("NEGOTIATOR_SEED", "12345")
	t.Setenv("NEGOTIATOR_JOURNAL_DB", "/tmp/override.db")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.Rounds != 25 {
		t.Errorf("rounds = %d, want 25 from the environment", cfg.Session.Rounds)
	}
	if cfg.Session.Seed != 12345 {
		t.Errorf("seed = %d, want 12345 from the environment", cfg.Session.Seed)
	}
	if cfg.Session.JournalDB != "/tmp/override.db" {
		t.Errorf("journal_db = %q, want the environment override", cfg.Session.JournalDB)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[policy]
learning_accept = 3.5
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("out-of-range config file accepted")
	}
}
