package main

import (
	"context"
	"encoding/json"
	"fmt"
	"hedgebacktest/cmd"
	"hedgebacktest/internal/data"
	"hedgebacktest/internal/domain"
	"hedgebacktest/internal/logger"
	"hedgebacktest/internal/service"
	"hedgebacktest/internal/util"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runOptions struct {
	ParamsFile string
	DataDir    string
	Start      string
	End        string
	Out        string
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func run(ctx context.Context, opts runOptions, stdout io.Writer) error {
	log := logger.FromContext(ctx)

	params := domain.DefaultStrategyParameters()
	if opts.ParamsFile != "" {
		p, err := util.LoadStrategyParameters(opts.ParamsFile)
		if err != nil {
			return err
		}
		params = *p
	}

	start, err := parseDate(opts.Start)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := parseDate(opts.End)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	handler := service.BacktestHandler{
		MarketDataService: data.NewCsvMarketDataService(opts.DataDir),
	}
	result, err := handler.Backtest(ctx, service.BacktestInput{
		Params: params,
		Start:  start,
		End:    end,
	})
	if err != nil {
		return fmt.Errorf("failed to run backtest: %w", err)
	}

	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.Out, err)
		}
		defer f.Close()
		if err := data.WriteSnapshotsCsv(f, result.Snapshots); err != nil {
			return err
		}
		log.Infow("wrote snapshots", "path", opts.Out, "periods", len(result.Snapshots))
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result.Metrics)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hedgebacktest",
		Short:        "Backtest a long reference / short alt basket strategy",
		SilenceUsage: true,
	}

	opts := runOptions{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over csv market data and print its metrics",
		RunE: func(c *cobra.Command, args []string) error {
			return run(c.Context(), opts, c.OutOrStdout())
		},
	}
	runCmd.Flags().StringVar(&opts.ParamsFile, "params", "", "yaml or json strategy parameters (defaults if empty)")
	runCmd.Flags().StringVar(&opts.DataDir, "data", ".", "directory holding reference.csv and candidates.csv")
	runCmd.Flags().StringVar(&opts.Start, "start", "", "first timestamp to include")
	runCmd.Flags().StringVar(&opts.End, "end", "", "last timestamp to include")
	runCmd.Flags().StringVar(&opts.Out, "out", "", "write per-period snapshots to this csv")

	var port int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the http api",
		RunE: func(c *cobra.Command, args []string) error {
			apiHandler, secrets, err := cmd.InitializeDependencies()
			if err != nil {
				return err
			}
			defer cmd.CloseDependencies(apiHandler)

			if port == 0 {
				port = secrets.Port
			}
			logger.FromContext(c.Context()).Infow("starting api", "port", port)
			return apiHandler.StartApi(port)
		},
	}
	serveCmd.Flags().IntVar(&port, "port", 0, "port to listen on (overrides secrets)")

	rootCmd.AddCommand(runCmd, serveCmd)
	return rootCmd
}

func main() {
	ctx := logger.WithContext(context.Background(), zap.S())
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
