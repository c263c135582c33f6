package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mt5-guard/internal/models"
)

// addOrderCommands adds order placement and modification commands.
func addOrderCommands(rootCmd *cobra.Command, app *App) {
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Place and modify orders",
	}
	orderCmd.AddCommand(newOrderPlaceCmd(app))
	orderCmd.AddCommand(newOrderSLTPCmd(app))
	rootCmd.AddCommand(orderCmd)
}

func newOrderPlaceCmd(app *App) *cobra.Command {
	var (
		side    string
		volume  float64
		price   float64
		sl      float64
		tp      float64
		pending bool
		tag     string
	)

	cmd := &cobra.Command{
		Use:   "place SYMBOL",
		Short: "Place a market deal or pending order with fill-mode fallback",
		Example: `  guard order place EURUSD --side buy --volume 0.1 --sl 1.0780 --tp 1.0900
  guard order place XAUUSD --side sell --volume 1 --price 2400.50 --pending`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			symbol := strings.ToUpper(args[0])

			direction := models.DirectionLong
			switch strings.ToLower(side) {
			case "buy", "long":
			case "sell", "short":
				direction = models.DirectionShort
			default:
				return fmt.Errorf("invalid side %q: use buy or sell", side)
			}

			inst, err := app.Cache.Instrument(ctx, symbol)
			if err != nil {
				return err
			}

			action := models.ActionDeal
			if pending {
				action = models.ActionPending
				if price <= 0 {
					return fmt.Errorf("pending orders require --price")
				}
			}

			fallback, err := app.Resolver.Resolve(inst, pending, volume)
			if err != nil {
				return err
			}

			if tag == "" {
				tag = "guard-" + uuid.NewString()[:8]
			}

			req := &models.OrderRequest{
				Action:     action,
				Symbol:     symbol,
				Direction:  direction,
				Volume:     volume,
				Price:      price,
				StopLoss:   sl,
				TakeProfit: tp,
				Tag:        tag,
			}

			result, err := app.Pipeline.Submit(ctx, req, inst, fallback)
			if err != nil {
				return err
			}
			fmt.Printf("accepted: ticket=%d fill_mode=%s attempts=%d\n",
				result.Ticket, result.ModeUsed, result.Attempts)
			return nil
		},
	}

	cmd.Flags().StringVar(&side, "side", "buy", "order side: buy or sell")
	cmd.Flags().Float64Var(&volume, "volume", 0, "order volume (lots)")
	cmd.Flags().Float64Var(&price, "price", 0, "entry price (required for pending orders)")
	cmd.Flags().Float64Var(&sl, "sl", 0, "stop-loss price")
	cmd.Flags().Float64Var(&tp, "tp", 0, "take-profit price")
	cmd.Flags().BoolVar(&pending, "pending", false, "place as a pending order")
	cmd.Flags().StringVar(&tag, "tag", "", "correlation tag (random when empty)")
	_ = cmd.MarkFlagRequired("volume")

	return cmd
}

func newOrderSLTPCmd(app *App) *cobra.Command {
	var sl, tp float64

	cmd := &cobra.Command{
		Use:     "sltp TICKET",
		Short:   "Modify stop-loss and take-profit on a position",
		Example: `  guard order sltp 10023 --sl 1.0810`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ticket %q", args[0])
			}
			outcome, err := app.Pipeline.ModifyStopTarget(cmd.Context(), ticket, sl, tp)
			if err != nil {
				return err
			}
			fmt.Println(outcome.Message)
			return nil
		},
	}

	cmd.Flags().Float64Var(&sl, "sl", 0, "new stop-loss price (0 leaves it unchanged)")
	cmd.Flags().Float64Var(&tp, "tp", 0, "new take-profit price (0 leaves it unchanged)")
	return cmd
}
