// Package cli provides the command-line interface for the guard service.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mt5-guard/internal/config"
	"mt5-guard/internal/fillmode"
	"mt5-guard/internal/guard"
	"mt5-guard/internal/logging"
	"mt5-guard/internal/marketdata"
	"mt5-guard/internal/orders"
	"mt5-guard/internal/store"
	"mt5-guard/internal/venue"
	"mt5-guard/internal/venue/bridge"
	"mt5-guard/internal/venue/sim"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Gateway  venue.Gateway
	Stream   venue.QuoteStream
	Cache    *marketdata.Cache
	Store    store.GuardStore
	Pipeline *orders.Pipeline
	Resolver *fillmode.Resolver
	Registry *guard.Registry
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{}
	var configDir string
	var useSim bool

	rootCmd := &cobra.Command{
		Use:   "guard",
		Short: "Position guard for an MT5-style trading venue",
		Long: `guard watches open positions and applies protective adjustments:
trailing stops that only ever tighten, and order submission with
automatic fill-mode fallback.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			app.Config = cfg
			app.Logger = logging.NewLoggerWithConfig(logging.LogConfig{
				Level:      cfg.Logging.Level,
				Console:    cfg.Logging.Console,
				File:       cfg.Logging.File,
				FilePath:   cfg.Logging.FilePath,
				MaxSize:    cfg.Logging.MaxSize,
				MaxBackups: cfg.Logging.MaxBackups,
				MaxAge:     cfg.Logging.MaxAge,
			})
			return app.wire(useSim)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Store != nil {
				_ = app.Store.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.config/mt5-guard)")
	rootCmd.PersistentFlags().BoolVar(&useSim, "sim", false, "use the in-memory simulated venue instead of the bridge")

	addOrderCommands(rootCmd, app)
	addTrailCommands(rootCmd, app)
	addRunCommand(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addJournalCommand(rootCmd, app)
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// wire builds the dependency graph behind App from config.
func (a *App) wire(useSim bool) error {
	if useSim {
		a.Gateway = sim.New()
	} else {
		a.Gateway = bridge.NewGateway(bridge.Config{
			BaseURL: a.Config.Bridge.URL,
			Timeout: a.Config.Bridge.Timeout,
		}, a.Logger)
		if a.Config.Bridge.StreamURL != "" {
			a.Stream = bridge.NewStream(a.Config.Bridge.StreamURL, a.Logger)
		}
	}

	a.Cache = marketdata.NewCache(a.Gateway, marketdata.WithQuoteTTL(a.Config.Guard.QuoteTTL))
	a.Resolver = fillmode.NewResolver(fillmode.PolicyFromConfig(a.Config.FillMode))

	if a.Config.Store.Path != "" {
		st, err := store.NewSQLiteStore(a.Config.Store.Path)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to open guard store, running without persistence")
		} else {
			a.Store = st
		}
	}

	a.Pipeline = orders.NewPipeline(a.Gateway, a.Store, a.Logger)
	a.Registry = guard.NewRegistry(a.Store)
	return nil
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("guard %s\n", Version)
		},
	}
}
