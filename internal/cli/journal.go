package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mt5-guard/internal/store"
)

// addJournalCommand adds the guard journal inspection command.
func addJournalCommand(rootCmd *cobra.Command, app *App) {
	var (
		ticket uint64
		kind   string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recorded guard actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("no guard store configured")
			}
			events, err := app.Store.GetEvents(cmd.Context(), store.EventFilter{
				Ticket: ticket,
				Kind:   store.EventKind(kind),
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("no journal entries")
				return nil
			}
			for _, e := range events {
				status := "ok"
				if !e.Success {
					status = e.Reason
				}
				fmt.Printf("%s %-11s ticket=%d %s %s %s\n",
					e.Time.Format("2006-01-02 15:04:05"), e.Kind, e.Ticket, e.Symbol, status, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&ticket, "ticket", 0, "filter by ticket")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by event kind")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	rootCmd.AddCommand(cmd)
}
