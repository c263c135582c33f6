package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mt5-guard/internal/models"
	"mt5-guard/internal/store"
	"mt5-guard/pkg/pricing"
)

// addTrailCommands adds trailing-stop registration commands.
func addTrailCommands(rootCmd *cobra.Command, app *App) {
	trailCmd := &cobra.Command{
		Use:   "trail",
		Short: "Manage trailing-stop registrations",
	}
	trailCmd.AddCommand(newTrailAddCmd(app))
	trailCmd.AddCommand(newTrailRemoveCmd(app))
	trailCmd.AddCommand(newTrailListCmd(app))
	rootCmd.AddCommand(trailCmd)
}

func newTrailAddCmd(app *App) *cobra.Command {
	var distancePips, activationPips float64

	cmd := &cobra.Command{
		Use:   "add TICKET",
		Short: "Register a trailing stop for an open position",
		Long: `Register a trailing stop for an open position. Distances are given
in pips and converted once to absolute price units using the
instrument's quoting convention.`,
		Example: `  guard trail add 10023 --distance 20
  guard trail add 10023 --distance 20 --activation 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ticket, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ticket %q", args[0])
			}

			pos, err := app.Gateway.GetPosition(ctx, ticket)
			if err != nil {
				return err
			}
			inst, err := app.Cache.Instrument(ctx, pos.Symbol)
			if err != nil {
				return err
			}

			cfg := &models.TrailConfig{
				Ticket:       ticket,
				Symbol:       pos.Symbol,
				Distance:     pricing.PipsToPrice(distancePips, inst.Point, inst.Digits),
				Activation:   pricing.PipsToPrice(activationPips, inst.Point, inst.Digits),
				RegisteredAt: time.Now(),
			}
			if err := app.Registry.Register(ctx, cfg); err != nil {
				return err
			}
			if app.Store != nil {
				event := &store.Event{
					Time:    time.Now(),
					Kind:    store.EventTrailSet,
					Ticket:  ticket,
					Symbol:  pos.Symbol,
					Success: true,
					Reason:  string(models.ReasonOK),
					Message: fmt.Sprintf("trailing registered at %g/%g", cfg.Distance, cfg.Activation),
				}
				if err := app.Store.LogEvent(ctx, event); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to journal trail registration")
				}
			}
			fmt.Printf("trailing %s ticket %d: distance=%.*f activation=%.*f\n",
				pos.Symbol, ticket, inst.Digits, cfg.Distance, inst.Digits, cfg.Activation)
			return nil
		},
	}

	cmd.Flags().Float64Var(&distancePips, "distance", 0, "trailing distance in pips")
	cmd.Flags().Float64Var(&activationPips, "activation", 0, "activation distance in pips (0 trails immediately)")
	_ = cmd.MarkFlagRequired("distance")

	return cmd
}

func newTrailRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TICKET",
		Short: "Remove a trailing-stop registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ticket %q", args[0])
			}
			if err := app.Registry.Deregister(cmd.Context(), ticket); err != nil {
				return err
			}
			fmt.Printf("removed trailing registration for ticket %d\n", ticket)
			return nil
		},
	}
}

func newTrailListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trailing-stop registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Registry.Load(cmd.Context()); err != nil {
				return err
			}
			entries := app.Registry.Snapshot()
			if len(entries) == 0 {
				fmt.Println("no trailing registrations")
				return nil
			}
			for _, cfg := range entries {
				fmt.Printf("ticket=%d symbol=%s distance=%g activation=%g last_stop=%g\n",
					cfg.Ticket, cfg.Symbol, cfg.Distance, cfg.Activation, cfg.LastStop)
			}
			return nil
		},
	}
}
