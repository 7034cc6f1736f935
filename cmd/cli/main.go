package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dvloznov/finsight/internal/bootstrap"
	"github.com/dvloznov/finsight/internal/config"
	"github.com/dvloznov/finsight/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "finsight",
		Short: "Analyze transaction uploads and project financial runway",
		Long: `finsight ingests transaction tables, categorizes and audits them, and
computes burn rate, runway, hiring scenarios and expense forecasts per user.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (optional)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides log.level)")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newSnapshotCmd(opts),
		newSimulateCmd(opts),
		newForecastCmd(opts),
		newCashCmd(opts),
		newActivityCmd(opts),
		newSyncNotionCmd(opts),
	)
	return root
}

// load reads configuration and returns a context carrying a logger that writes to stderr.
func (o *rootOptions) load(cmd *cobra.Command) (context.Context, *config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr()).Level(logger.ParseLevel(level))
	return logger.WithContext(cmd.Context(), log), cfg, nil
}

// openApp loads configuration and opens the store.
func (o *rootOptions) openApp(cmd *cobra.Command) (context.Context, *bootstrap.App, error) {
	ctx, cfg, err := o.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return ctx, app, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireUserFlag(user string) error {
	if user == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}
