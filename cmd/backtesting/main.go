package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prabhatpushp/backtesting/internal/config"
	"github.com/prabhatpushp/backtesting/internal/logger"
	"github.com/prabhatpushp/backtesting/internal/metrics"
	"github.com/prabhatpushp/backtesting/internal/strategy"
	"github.com/prabhatpushp/backtesting/internal/strategy/buyhold"
	"github.com/prabhatpushp/backtesting/internal/strategy/macross"
	"github.com/prabhatpushp/backtesting/internal/strategy/priceaction"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "backtesting",
	Short: "Bar-by-bar trading strategy backtester",
	Long: `backtesting replays trading strategies over historical OHLCV data,
simulating order fills, commission and slippage bar by bar, and reports
trade-level results and performance statistics.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configured file or falls back to defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// setup builds the command logger and loads configuration. Development
// logging can come from the --debug flag or the config file.
func setup() (*zap.Logger, *config.Config, error) {
	log := logger.Must(debug)
	cfg, err := loadConfig(log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Logging.Development && !debug {
		log = logger.Must(true)
	}
	return log, cfg, nil
}

// buildRegistry registers the built-in strategies and applies per-strategy
// configuration.
func buildRegistry(cfg *config.Config) (*strategy.Registry, error) {
	reg := strategy.NewRegistry()

	builtins := []strategy.Strategy{
		macross.New(macross.DefaultFastPeriod, macross.DefaultSlowPeriod, 0.2),
		buyhold.New(1),
		priceaction.New(priceaction.DefaultDipPct, priceaction.DefaultProfitPct, 0.2),
	}

	for _, s := range builtins {
		if sc, ok := cfg.Strategies[s.Name()]; ok {
			if err := s.Init(strategy.Config{Enabled: sc.Enabled, Params: sc.Params}); err != nil {
				return nil, fmt.Errorf("configuring strategy %s: %w", s.Name(), err)
			}
		}
		reg.Register(s)
	}
	return reg, nil
}

// serveMetrics exposes the registry over HTTP when metrics are enabled.
// The listener runs for the remainder of the process.
func serveMetrics(cfg *config.Config, reg *metrics.Registry, log *zap.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		log.Info("serving metrics",
			zap.String("listen", cfg.Metrics.Listen),
			zap.String("path", cfg.Metrics.Path))
		if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
}
