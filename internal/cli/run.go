package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mt5-guard/internal/guard"
	"mt5-guard/internal/models"
)

// addRunCommand adds the guard daemon command.
func addRunCommand(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the position guard loop",
		Long: `Run the position guard loop: every cycle each registered ticket is
refetched, its trailing stop recomputed, and any improvement applied.
Closed positions are deregistered automatically. Stop with Ctrl-C;
the in-flight cycle completes before exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			scheduler := guard.NewScheduler(
				app.Registry,
				app.Pipeline,
				app.Gateway,
				app.Cache,
				app.Store,
				app.Logger,
				guard.RealClock{},
				guard.SchedulerConfig{
					Interval:    app.Config.Guard.Interval,
					CallTimeout: app.Config.Guard.CallTimeout,
				},
			)

			streaming := false
			if app.Stream != nil {
				if err := app.Stream.Connect(ctx); err != nil {
					app.Logger.Warn().Err(err).Msg("Quote stream unavailable, polling instead")
				} else {
					streaming = true
					app.Stream.OnQuote(func(q models.Quote) { app.Cache.Put(q) })
					app.Stream.OnError(func(err error) {
						app.Logger.Warn().Err(err).Msg("Quote stream dropped, polling instead")
					})
					defer app.Stream.Disconnect()
				}
			}

			if err := scheduler.Start(ctx); err != nil {
				return err
			}

			if streaming {
				seen := make(map[string]struct{})
				var symbols []string
				for _, cfg := range app.Registry.Snapshot() {
					if _, ok := seen[cfg.Symbol]; !ok {
						seen[cfg.Symbol] = struct{}{}
						symbols = append(symbols, cfg.Symbol)
					}
				}
				if len(symbols) > 0 {
					if err := app.Stream.Subscribe(symbols); err != nil {
						app.Logger.Warn().Err(err).Msg("Quote subscription failed, polling instead")
					}
				}
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			sig := <-sigCh
			fmt.Printf("received %s, stopping after current cycle\n", sig)

			scheduler.Stop()
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
