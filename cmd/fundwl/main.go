package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/komsit37/fundwl/pkg/fw/config"
	"github.com/komsit37/fundwl/pkg/fw/logging"
)

type globals struct {
	configFile string
	logLevel   string
	cfg        config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := &globals{}
	rootCmd := &cobra.Command{
		Use:           "fundwl",
		Short:         "Fund watchlist with real-time estimates and official NAVs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configFile)
			if err != nil {
				return err
			}
			if g.logLevel != "" {
				cfg.Log.Level = g.logLevel
			}
			if _, err := logging.Init(cfg.Log); err != nil {
				return err
			}
			g.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.L().Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default ./fundwl.yaml or ~/.config/fundwl/fundwl.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	show := showCmd(g)
	rootCmd.RunE = show.RunE
	rootCmd.Args = show.Args
	rootCmd.Flags().AddFlagSet(show.Flags())

	rootCmd.AddCommand(
		show,
		watchCmd(g),
		addCmd(g),
		rmCmd(g),
		holdingCmd(g),
		reorderCmd(g),
		typesCmd(g),
		refreshCmd(g),
		historyCmd(g),
		indicesCmd(g),
		sectorsCmd(g),
		importCmd(g),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withApp opens the services for a command and closes them afterwards.
func withApp(cmd *cobra.Command, g *globals, fn func(a *app) error) error {
	a, err := newApp(cmd.Context(), g.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
