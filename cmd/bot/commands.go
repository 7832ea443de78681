package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tacticbot/internal/analysis"
	"tacticbot/internal/asset"
	"tacticbot/internal/broker"
	"tacticbot/internal/config"
	"tacticbot/internal/engine"
	"tacticbot/internal/logging"
)

type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:          "bot",
		Short:        "Run rule-based trading tactics against a brokerage account",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.Build(a.cfg.LogLevel, a.cfg.LogFile)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	config.BindFlags(rootCmd.PersistentFlags(), &a.cfg)

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newQuoteCmd(a))
	rootCmd.AddCommand(newOrdersCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	return rootCmd
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run CONFIG_PATH",
		Short: "Run the configured tactics until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0], a.cfg)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			a.cfg = cfg

			platform, closePlatform := a.platform()
			defer closePlatform()

			journal, err := engine.NewJournal(cfg.JournalPath, generateRunID())
			if err != nil {
				return fmt.Errorf("journal error: %w", err)
			}
			defer func() {
				if err := journal.Close(); err != nil {
					a.logger.Error("failed to close journal", zap.Error(err))
				}
			}()

			cache := analysis.NewCache(platform, config.Universe(cfg.Tactics), a.logger)
			runner := engine.NewRunner(platform, cache, journal, a.logger)
			scheduler, err := engine.NewScheduler(cfg.File, runner, a.logger)
			if err != nil {
				return err
			}

			a.logger.Info("starting bot",
				zap.String("run_id", journal.RunID()),
				zap.String("platform", cfg.Platform),
				zap.Bool("simulated", cfg.Simulated),
				zap.String("feed", cfg.Feed),
				zap.Int("tactics", len(cfg.Tactics)),
			)
			if err := scheduler.Run(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("bot shutdown complete")
			return nil
		},
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze SYMBOL...",
		Short: "Print bar statistics for the day, week and month windows",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, closePlatform, err := a.platformFromEnv()
			if err != nil {
				return err
			}
			defer closePlatform()

			now := time.Now()
			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(out, "SYMBOL\tPERIOD\tBARS\tMEDIAN\tUP MEDIAN %\tDOWN MEDIAN %\tOPEN\tHIGH\tLOW\tCLOSE\tMEAN CLOSE\tVWAP")
			for _, symbol := range asset.ParseAll(args) {
				result, err := analysis.Fetch(cmd.Context(), platform, symbol, now)
				if err != nil {
					return err
				}
				for _, period := range []analysis.Period{analysis.PeriodDay, analysis.PeriodWeek, analysis.PeriodMonth} {
					writeAnalysisRow(out, symbol, period, result)
				}
			}
			return out.Flush()
		},
	}
}

func writeAnalysisRow(w io.Writer, symbol asset.Symbol, period analysis.Period, result analysis.Result) {
	series := result.Series(period)
	median, _ := series.AverageMedian()
	up, _ := series.PositivePercentMedian()
	down, _ := series.NegativePercentMedian()
	bar, _ := series.PeriodBar()
	mean, _ := series.MeanClose()
	vwap, _ := series.VolumeWeightedClose()
	fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
		symbol, period, series.Len(), median, up, down, bar.Open, bar.High, bar.Low, bar.Close, mean, vwap)
}

func newQuoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL...",
		Short: "Print the latest quotes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, closePlatform, err := a.platformFromEnv()
			if err != nil {
				return err
			}
			defer closePlatform()

			quotes, err := platform.LatestQuotes(cmd.Context(), asset.ParseAll(args))
			if err != nil {
				return err
			}
			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(out, "SYMBOL\tBID\tASK\tSPREAD\tSPREAD %\tTIME")
			for _, q := range quotes {
				fmt.Fprintf(out, "%s\t%.2f\t%.2f\t%.2f\t%.3f\t%s\n",
					q.Symbol, q.BidPrice, q.AskPrice, q.Spread(), q.SpreadPercent(), q.Time.Format(time.RFC3339))
			}
			return out.Flush()
		},
	}
}

func newOrdersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Print open orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, closePlatform, err := a.platformFromEnv()
			if err != nil {
				return err
			}
			defer closePlatform()

			status, err := engine.FetchStatus(cmd.Context(), platform)
			if err != nil {
				return err
			}
			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(out, "ID\tSYMBOL\tSIDE\tAMOUNT\tSTATUS")
			for _, order := range status.OpenOrders {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", order.ID, order.Symbol, order.Side, order.Amount, order.Status)
			}
			return out.Flush()
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [SYMBOL...]",
		Short: "Print the account and its positions, or only the named holdings",
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, closePlatform, err := a.platformFromEnv()
			if err != nil {
				return err
			}
			defer closePlatform()

			status, err := engine.FetchStatus(cmd.Context(), platform, asset.ParseAll(args)...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, status.Account)
			out := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(out, "SYMBOL\tQTY\tAVAILABLE\tAVG ENTRY\tCOST\tMARKET VALUE\tTODAY %\tTOTAL %")
			for _, pos := range status.Positions {
				fmt.Fprintf(out, "%s\t%.4f\t%.4f\t%.2f\t%.2f\t%s\t%s\t%s\n",
					pos.Symbol, pos.Qty, pos.QtyAvailable, pos.AvgEntryPrice, pos.Value(),
					optional(pos.MarketValue), optional(pos.UnrealizedGainTodayPercent), optional(pos.UnrealizedGainTotalPercent))
			}
			for _, symbol := range status.Missing {
				fmt.Fprintf(out, "%s\tno position\n", symbol)
			}
			return out.Flush()
		},
	}
}

func optional(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *value)
}

// platformFromEnv prepares a platform for the one-shot commands, which take
// no tactic file.
func (a *app) platformFromEnv() (broker.Platform, func(), error) {
	if err := config.LoadEnv(&a.cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Validate(a.cfg); err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}
	platform, closePlatform := a.platform()
	return platform, closePlatform, nil
}

// platform builds the configured broker, with the Redis bar cache in front
// when an address is set.
func (a *app) platform() (broker.Platform, func()) {
	var platform broker.Platform
	switch a.cfg.Platform {
	case config.PlatformNoop:
		platform = broker.NewNoop(a.logger)
	default:
		platform = broker.New(broker.Options{
			APIKey:    a.cfg.APIKey,
			APISecret: a.cfg.APISecret,
			BaseURL:   a.cfg.BaseURL,
			Feed:      a.cfg.Feed,
		}, a.logger)
	}

	if a.cfg.RedisAddr == "" {
		return platform, func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
	return broker.NewCachedBars(platform, rdb, a.logger), func() {
		if err := rdb.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}
