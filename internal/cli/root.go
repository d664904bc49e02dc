package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bilateral-negotiator/internal/config"
	"bilateral-negotiator/internal/logging"
	"bilateral-negotiator/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Journal store.Journal
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize the session journal
	if cfg.Session.JournalDB != "" {
		journal, err := store.NewSQLiteJournal(cfg.Session.JournalDB)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize journal, sessions will not be persisted")
		} else {
			app.Journal = journal
			logger.Debug().Str("db", cfg.Session.JournalDB).Msg("Session journal initialized")
		}
	}

	rootCmd := &cobra.Command{
		Use:   "negotiator",
		Short: "Autonomous bilateral negotiation agent",
		Long: `negotiator is the decision engine of an autonomous bilateral negotiation
agent: it models the opponent's preferences online, dispatches accept/offer
decisions across deadline phases, and plans an optimal final offer sequence.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
			}
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	addRunCommand(rootCmd, app)
	addInspectCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)

	return rootCmd
}
