package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilateral-negotiator/internal/domain"
	"bilateral-negotiator/internal/profile"
)

// addInspectCommands adds domain and profile inspection commands.
func addInspectCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect domain and preference profile files",
	}

	cmd.AddCommand(newInspectDomainCmd(app))
	cmd.AddCommand(newInspectProfileCmd(app))

	rootCmd.AddCommand(cmd)
}

func newInspectDomainCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "domain <file>",
		Short: "Show the issues and values of a domain file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			dom, err := domain.LoadFile(args[0])
			if err != nil {
				return err
			}

			output.Bold("Domain: %s", dom.Name())
			output.Println()

			table := NewTable(output, "Issue", "Values", "Count")
			for _, issue := range dom.Issues() {
				values, _ := dom.Values(issue)
				table.AddRow(issue, joinTruncated(values, 60), fmt.Sprintf("%d", len(values)))
			}
			table.Render()

			output.Println()
			output.Info("Outcome space size: %d", dom.Size())
			return nil
		},
	}
}

func newInspectProfileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <domain-file> <profile-file>",
		Short: "Show a preference profile against its domain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			dom, err := domain.LoadFile(args[0])
			if err != nil {
				return err
			}
			prof, err := profile.LoadFile(args[1], dom)
			if err != nil {
				return err
			}

			output.Bold("Profile over domain %s", dom.Name())
			output.Println()

			for _, issue := range dom.Issues() {
				output.Info("%s (weight %.3f)", issue, prof.Weight(issue))
				table := NewTable(output, "Value", "Utility")
				values, _ := dom.Values(issue)
				for _, v := range values {
					table.AddRow(v, output.FormatUtility(prof.ValueUtility(issue, v)))
				}
				table.Render()
				output.Println()
			}

			if bid, ok := prof.ReservationBid(); ok {
				output.Warning("Reservation bid: %s (utility %.3f)", bid, prof.ReservationValue())
			} else {
				output.Dim("No reservation bid (reservation value 0)")
			}
			return nil
		},
	}
}

func joinTruncated(values []string, max int) string {
	var s string
	for i, v := range values {
		if i > 0 {
			s += ", "
		}
		s += v
		if len(s) > max {
			return s[:max] + "…"
		}
	}
	return s
}
