// Package config loads and validates the application configuration from a
// YAML file, with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/prabhatpushp/backtesting/internal/core"
	"github.com/prabhatpushp/backtesting/internal/dataset"
	"github.com/prabhatpushp/backtesting/internal/engine"
)

type Config struct {
	Data       DataConfig                `mapstructure:"data"`
	Engine     engine.Config             `mapstructure:"engine"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`
	Randomizer RandomizerConfig          `mapstructure:"randomizer"`
	Results    ResultsConfig             `mapstructure:"results"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Logging    LoggingConfig             `mapstructure:"logging"`
	// Parallel bounds concurrent runs in batch mode. Zero means one run
	// at a time.
	Parallel int `mapstructure:"parallel"`
}

// DataConfig locates and describes the price history files.
type DataConfig struct {
	StocksDir string          `mapstructure:"stocks_dir"`
	Columns   dataset.Columns `mapstructure:"columns"`
}

// StrategyConfig holds per-strategy settings.
type StrategyConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// RandomizerConfig controls test-universe selection for batch runs.
type RandomizerConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	Count   int   `mapstructure:"count"`
	Seed    int64 `mapstructure:"seed"`
}

// ResultsConfig controls report output.
type ResultsConfig struct {
	Dir        string `mapstructure:"dir"`
	SaveTrades bool   `mapstructure:"save_trades"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults: the stock engine
// settings, a ten-symbol seeded universe and development logging off.
func Defaults() *Config {
	return &Config{
		Data: DataConfig{
			StocksDir: "stocks",
			Columns:   dataset.DefaultColumns(),
		},
		Engine: engine.DefaultConfig(),
		Strategies: map[string]StrategyConfig{
			"ma_cross": {
				Enabled: true,
				Params: map[string]any{
					"fast_period": 20,
					"slow_period": 50,
					"size_pct":    0.2,
				},
			},
		},
		Randomizer: RandomizerConfig{
			Enabled: true,
			Count:   10,
			Seed:    42,
		},
		Results: ResultsConfig{
			Dir:        "results",
			SaveTrades: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
			Path:    "/metrics",
		},
		Parallel: 4,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Data.StocksDir == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("data.stocks_dir is required"))
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Randomizer.Enabled && c.Randomizer.Count < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("randomizer.count must be at least 1, got %d", c.Randomizer.Count))
	}
	if c.Parallel < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("parallel cannot be negative, got %d", c.Parallel))
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("metrics.listen required when metrics are enabled"))
	}
	return nil
}
