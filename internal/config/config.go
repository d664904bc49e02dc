// Package config provides configuration management for the negotiation agent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Policy   PolicyConfig   `mapstructure:"policy"`
	Opponent OpponentConfig `mapstructure:"opponent"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Session  SessionConfig  `mapstructure:"session"`
	UI       UIConfig       `mapstructure:"ui"`
}

// PolicyConfig holds the phase boundaries and per-phase acceptance tunables.
type PolicyConfig struct {
	PhaseBoundaries    []float64 `mapstructure:"phase_boundaries"`
	LearningAccept     float64   `mapstructure:"learning_accept"`
	DiscussionAccept   float64   `mapstructure:"discussion_accept"`
	DiscussionFloorMin float64   `mapstructure:"discussion_floor_min"`
	SampleBudget       int       `mapstructure:"sample_budget"`
	JointSelfWeight    float64   `mapstructure:"joint_self_weight"`
	JointTimeWeight    float64   `mapstructure:"joint_time_weight"`
}

// OpponentConfig holds opponent model tunables.
type OpponentConfig struct {
	// Decay applied to accumulated value counts before each new observation.
	// 0 means no decay (counts only grow). Flagged for calibration.
	Decay float64 `mapstructure:"decay"`
}

// PlannerConfig holds offer planner tunables.
type PlannerConfig struct {
	SensibilityThreshold float64 `mapstructure:"sensibility_threshold"`
	// TurnEstimate is the remaining-turn budget assumed when the session
	// clock is time-based and the true number of remaining turns is unknown.
	TurnEstimate int `mapstructure:"turn_estimate"`
}

// SessionConfig holds session-level configuration.
type SessionConfig struct {
	Rounds     int    `mapstructure:"rounds"`
	DomainPath string `mapstructure:"domain_path"`
	ProfilePath string `mapstructure:"profile_path"`
	JournalDB  string `mapstructure:"journal_db"`
	Seed       int64  `mapstructure:"seed"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/bilateral-negotiator"
	}
	return filepath.Join(home, ".config", "bilateral-negotiator")
}

// Default returns the built-in configuration, matching the tuned agent.
func Default() *Config {
	return &Config{
		Policy: PolicyConfig{
			PhaseBoundaries:    []float64{0.15, 0.40, 0.90},
			LearningAccept:     0.9,
			DiscussionAccept:   0.8,
			DiscussionFloorMin: 0.6,
			SampleBudget:       500,
			JointSelfWeight:    1.8,
			JointTimeWeight:    0.3,
		},
		Opponent: OpponentConfig{Decay: 0},
		Planner: PlannerConfig{
			SensibilityThreshold: 0.4,
			TurnEstimate:         10,
		},
		Session: SessionConfig{
			Rounds:    100,
			JournalDB: filepath.Join(DefaultConfigDir(), "negotiator.db"),
		},
		UI: UIConfig{ColorEnabled: true, TimeFormat: "15:04:05"},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Config file not found, create template for the user to edit
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("policy.phase_boundaries", cfg.Policy.PhaseBoundaries)
	v.SetDefault("policy.learning_accept", cfg.Policy.LearningAccept)
	v.SetDefault("policy.discussion_accept", cfg.Policy.DiscussionAccept)
	v.SetDefault("policy.discussion_floor_min", cfg.Policy.DiscussionFloorMin)
	v.SetDefault("policy.sample_budget", cfg.Policy.SampleBudget)
	v.SetDefault("policy.joint_self_weight", cfg.Policy.JointSelfWeight)
	v.SetDefault("policy.joint_time_weight", cfg.Policy.JointTimeWeight)
	v.SetDefault("opponent.decay", cfg.Opponent.Decay)
	v.SetDefault("planner.sensibility_threshold", cfg.Planner.SensibilityThreshold)
	v.SetDefault("planner.turn_estimate", cfg.Planner.TurnEstimate)
	v.SetDefault("session.rounds", cfg.Session.Rounds)
	v.SetDefault("session.journal_db", cfg.Session.JournalDB)
	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
	v.SetDefault("ui.time_format", cfg.UI.TimeFormat)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NEGOTIATOR_DOMAIN"); v != "" {
		cfg.Session.DomainPath = v
	}
	if v := os.Getenv("NEGOTIATOR_PROFILE"); v != "" {
		cfg.Session.ProfilePath = v
	}
	if v := os.Getenv("NEGOTIATOR_JOURNAL_DB"); v != "" {
		cfg.Session.JournalDB = v
	}
	if v := os.Getenv("NEGOTIATOR_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Session.Rounds = n
		}
	}
	if v := os.Getenv("NEGOTIATOR_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Session.Seed = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	b := c.Policy.PhaseBoundaries
	if len(b) != 3 {
		return fmt.Errorf("phase_boundaries must have exactly 3 entries, got %d", len(b))
	}
	if !(b[0] < b[1] && b[1] < b[2]) {
		return fmt.Errorf("phase_boundaries must be strictly increasing: %v", b)
	}
	for i, v := range b {
		if v <= 0 || v > 1 {
			return fmt.Errorf("phase_boundaries[%d] must be in (0, 1], got %v", i, v)
		}
	}
	if c.Policy.LearningAccept < 0 || c.Policy.LearningAccept > 1 {
		return fmt.Errorf("learning_accept must be between 0 and 1")
	}
	if c.Policy.DiscussionAccept < 0 || c.Policy.DiscussionAccept > 1 {
		return fmt.Errorf("discussion_accept must be between 0 and 1")
	}
	if c.Policy.SampleBudget <= 0 {
		return fmt.Errorf("sample_budget must be positive")
	}
	if c.Opponent.Decay < 0 || c.Opponent.Decay >= 1 {
		return fmt.Errorf("opponent decay must be in [0, 1)")
	}
	if c.Planner.SensibilityThreshold < 0 || c.Planner.SensibilityThreshold > 1 {
		return fmt.Errorf("sensibility_threshold must be between 0 and 1")
	}
	if c.Planner.TurnEstimate <= 0 {
		return fmt.Errorf("turn_estimate must be positive")
	}
	if c.Session.Rounds <= 0 {
		return fmt.Errorf("session rounds must be positive")
	}
	return nil
}
