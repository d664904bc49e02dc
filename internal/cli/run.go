package cli

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bilateral-negotiator/internal/domain"
	"bilateral-negotiator/internal/models"
	"bilateral-negotiator/internal/profile"
	"bilateral-negotiator/internal/session"
	"bilateral-negotiator/internal/simulate"
)

// addRunCommand adds the self-play session command.
func addRunCommand(rootCmd *cobra.Command, app *App) {
	var (
		domainPath  string
		profilePath string
		rounds      int
		seed        int64
		oppKind     string
		oppExponent float64
		oppMinU     float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a negotiation session against a simulated opponent",
		Long: `Run a complete negotiation session in-process against a time-dependent
concession opponent. With no domain file, a small demo domain is used and
both sides get randomly generated preference profiles.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if rounds <= 0 {
				rounds = app.Config.Session.Rounds
			}
			if seed == 0 {
				seed = app.Config.Session.Seed
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))

			dom, agentProf, err := loadOrDemoSetup(domainPath, profilePath, app, rng)
			if err != nil {
				return err
			}

			oppProf, err := simulate.RandomProfile(dom, rng)
			if err != nil {
				return fmt.Errorf("generating opponent profile: %w", err)
			}
			var opp simulate.Opponent
			switch oppKind {
			case "conceder":
				opp = simulate.NewTimeConceder(oppKind, oppProf, oppExponent, oppMinU, rng)
			case "random":
				opp = simulate.NewRandomBidder(oppKind, oppProf, oppMinU, rng)
			default:
				return fmt.Errorf("unknown opponent %q (want conceder or random)", oppKind)
			}

			color.Cyan("⚖ Negotiation session: domain %q, %d issues, %d outcomes, %d rounds",
				dom.Name(), len(dom.Issues()), dom.Size(), rounds)

			eng := session.New(session.Options{
				Config:   app.Config,
				Profile:  agentProf,
				Progress: session.NewRoundProgress(rounds),
				Journal:  app.Journal,
				Rng:      rng,
				Logger:   app.Logger,
			})

			result, err := simulate.Run(eng, opp, rounds, app.Logger)
			if err != nil {
				output.Warning("Session finished but journaling failed: %v", err)
			}

			output.Println()
			if output.IsJSON() {
				return output.JSON(result)
			}

			switch result.Outcome {
			case models.OutcomeAgreement:
				color.Green("✓ Agreement after %d rounds", result.Rounds)
				output.Println()
				output.Bold("Agreed bid: %s", result.AgreementBid)
				table := NewTable(output, "Side", "Utility")
				table.AddRow("agent", output.FormatUtility(result.AgentUtility))
				table.AddRow(opp.Name(), output.FormatUtility(result.OpponentUtility))
				table.Render()
			default:
				color.Yellow("✗ No agreement: %s after %d rounds", result.Outcome, result.Rounds)
			}
			output.Println()
			output.Dim("Seed: %d (repeat with --seed %d)", seed, seed)
			return nil
		},
	}

	cmd.Flags().StringVar(&domainPath, "domain", "", "Domain JSON file (default: built-in demo domain)")
	cmd.Flags().StringVar(&profilePath, "profile", "", "Agent preference profile JSON file")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Number of negotiation rounds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = time-based)")
	cmd.Flags().StringVar(&oppKind, "opponent", "conceder", "Simulated opponent: conceder or random")
	cmd.Flags().Float64Var(&oppExponent, "opp-exponent", 2.0, "Opponent concession exponent (<1 Boulware, >1 conceder)")
	cmd.Flags().Float64Var(&oppMinU, "opp-min-utility", 0.3, "Opponent minimum acceptable utility")

	rootCmd.AddCommand(cmd)
}

// loadOrDemoSetup resolves domain and agent profile from flags, config, or
// the built-in demo setup.
func loadOrDemoSetup(domainPath, profilePath string, app *App, rng *rand.Rand) (*domain.Domain, *profile.LinearAdditive, error) {
	if domainPath == "" {
		domainPath = app.Config.Session.DomainPath
	}
	if profilePath == "" {
		profilePath = app.Config.Session.ProfilePath
	}

	if domainPath == "" {
		dom := demoDomain()
		prof, err := simulate.RandomProfile(dom, rng)
		if err != nil {
			return nil, nil, fmt.Errorf("generating agent profile: %w", err)
		}
		return dom, prof, nil
	}

	dom, err := domain.LoadFile(domainPath)
	if err != nil {
		return nil, nil, err
	}
	if profilePath == "" {
		prof, err := simulate.RandomProfile(dom, rng)
		if err != nil {
			return nil, nil, fmt.Errorf("generating agent profile: %w", err)
		}
		return dom, prof, nil
	}
	prof, err := profile.LoadFile(profilePath, dom)
	if err != nil {
		return nil, nil, err
	}
	return dom, prof, nil
}

// demoDomain is the built-in party-planning domain used when no domain file
// is supplied.
func demoDomain() *domain.Domain {
	dom, _ := domain.New("party", map[string][]string{
		"venue":    {"ballroom", "garden", "rooftop", "hall"},
		"catering": {"buffet", "plated", "cocktail"},
		"music":    {"dj", "band", "playlist"},
		"date":     {"friday", "saturday", "sunday"},
	})
	return dom
}
