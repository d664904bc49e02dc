package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bilateral-negotiator/internal/store"
)

// addJournalCommands adds session journal commands.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Session journal management",
		Long:  "Review and analyze past negotiation sessions.",
	}

	cmd.AddCommand(newJournalListCmd(app))
	cmd.AddCommand(newJournalShowCmd(app))
	cmd.AddCommand(newJournalStatsCmd(app))

	rootCmd.AddCommand(cmd)
}

func newJournalListCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Journal == nil {
				output.Warning("Journal not initialized. No session data available.")
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			sessions, err := app.Journal.GetSessions(ctx, store.SessionFilter{Limit: limit})
			if err != nil {
				output.Error("Failed to fetch sessions: %v", err)
				return err
			}
			if len(sessions) == 0 {
				output.Info("No sessions recorded yet.")
				output.Dim("Tip: sessions are recorded when you run 'negotiator run'.")
				return nil
			}

			if output.IsJSON() {
				return output.JSON(sessions)
			}

			table := NewTable(output, "ID", "Domain", "Started", "Outcome", "Rounds", "Utility")
			for _, s := range sessions {
				table.AddRow(
					s.ID,
					s.DomainName,
					s.StartedAt.Format("02-Jan-2006 15:04:05"),
					string(s.Outcome),
					fmt.Sprintf("%d", s.Rounds),
					output.FormatUtility(s.AgentUtility),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	return cmd
}

func newJournalShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session turn by turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Journal == nil {
				output.Warning("Journal not initialized. No session data available.")
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			record, err := app.Journal.GetSession(ctx, args[0])
			if err != nil {
				output.Error("Failed to fetch session: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(record)
			}

			output.Bold("Session %s on %s (%s)", record.ID, record.DomainName, record.Outcome)
			output.Println()

			table := NewTable(output, "Turn", "Phase", "Progress", "Action", "Utility", "Bid")
			for i, d := range record.Decisions {
				table.AddRow(
					fmt.Sprintf("%d", i+1),
					d.Phase.String(),
					fmt.Sprintf("%.2f", d.Progress),
					string(d.Kind),
					output.FormatUtility(d.Utility),
					d.Bid.String(),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newJournalStatsCmd(app *App) *cobra.Command {
	var domainName string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate statistics over recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Journal == nil {
				output.Warning("Journal not initialized. No session data available.")
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			stats, err := app.Journal.GetStats(ctx, store.SessionFilter{DomainName: domainName})
			if err != nil {
				output.Error("Failed to compute stats: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(stats)
			}

			output.Bold("Session Statistics")
			output.Println()
			output.Print("Total sessions:  %d\n", stats.TotalSessions)
			output.Print("Agreements:      %d (%.1f%%)\n", stats.Agreements, stats.AgreementRate*100)
			output.Print("Avg utility:     %.3f\n", stats.AvgUtility)
			output.Print("Avg rounds:      %.1f\n", stats.AvgRounds)
			output.Println()

			if len(stats.ByOutcome) > 0 {
				table := NewTable(output, "Outcome", "Sessions")
				for outcome, n := range stats.ByOutcome {
					table.AddRow(outcome, fmt.Sprintf("%d", n))
				}
				table.Render()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&domainName, "domain", "", "Filter by domain name")
	return cmd
}
