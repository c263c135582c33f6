package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// addMarketCommands adds quote and position inspection commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Show the current quote for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			q, err := app.Cache.Quote(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			inst, err := app.Cache.Instrument(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			fmt.Printf("%s bid=%.*f ask=%.*f at %s\n",
				q.Symbol, inst.Digits, q.Bid, inst.Digits, q.Ask, q.Time.Format("15:04:05.000"))
			return nil
		},
	}
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "List open positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			positions, err := app.Gateway.GetPositions(cmd.Context())
			if err != nil {
				return err
			}
			if len(positions) == 0 {
				fmt.Println("no open positions")
				return nil
			}
			for _, pos := range positions {
				sl := "-"
				if pos.HasStopLoss() {
					sl = fmt.Sprintf("%g", pos.StopLoss)
				}
				tp := "-"
				if pos.TakeProfit != 0 {
					tp = fmt.Sprintf("%g", pos.TakeProfit)
				}
				fmt.Printf("ticket=%d %s %s %.2f @ %g sl=%s tp=%s\n",
					pos.Ticket, pos.Symbol, pos.Direction, pos.Volume, pos.OpenPrice, sl, tp)
			}
			return nil
		},
	}
}
