package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/garyjia/quote-engine/internal/calculation"
)

// Config holds all application configuration
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Validation ValidationConfig `mapstructure:"validation"`
	History    HistoryConfig    `mapstructure:"history"`
	Rates      RatesConfig      `mapstructure:"rates"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// ValidationConfig holds fixture validation configuration
type ValidationConfig struct {
	FixturesDir         string `mapstructure:"fixtures_dir"`
	Mode                string `mapstructure:"mode"`
	Workers             int    `mapstructure:"workers"`
	AbsTolerance        string `mapstructure:"abs_tolerance"`
	RelTolerancePercent string `mapstructure:"rel_tolerance_percent"`
}

// HistoryConfig holds validation-run history store configuration
type HistoryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RatesConfig overrides the default system rate scalars. Values are
// decimal strings so configuration never passes money-adjacent numbers
// through binary floats.
type RatesConfig struct {
	ForexRisk           string `mapstructure:"forex_risk"`
	FinancingCommission string `mapstructure:"financing_commission"`
	DailyLoanInterest   string `mapstructure:"daily_loan_interest"`
	TransitCommission   string `mapstructure:"transit_commission"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "console")

	viper.SetDefault("validation.fixtures_dir", "fixtures")
	viper.SetDefault("validation.mode", "detailed")
	viper.SetDefault("validation.workers", 4)
	viper.SetDefault("validation.abs_tolerance", "2.00")
	viper.SetDefault("validation.rel_tolerance_percent", "0.011")

	viper.SetDefault("history.enabled", false)
	viper.SetDefault("history.path", "data/validation_history.db")
	viper.SetDefault("history.max_open_conns", 5)
	viper.SetDefault("history.max_idle_conns", 2)
	viper.SetDefault("history.conn_max_lifetime", 5*time.Minute)

	viper.SetDefault("rates.forex_risk", "0.015")
	viper.SetDefault("rates.financing_commission", "0.01")
	viper.SetDefault("rates.daily_loan_interest", "0.0005")
	viper.SetDefault("rates.transit_commission", "0.005")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Validation.FixturesDir == "" {
		return fmt.Errorf("validation.fixtures_dir is required")
	}
	switch c.Validation.Mode {
	case "summary", "detailed":
	default:
		return fmt.Errorf("validation.mode must be summary or detailed, got %q", c.Validation.Mode)
	}
	if c.Validation.Workers < 1 {
		return fmt.Errorf("validation.workers must be at least 1")
	}
	if _, err := decimal.NewFromString(c.Validation.AbsTolerance); err != nil {
		return fmt.Errorf("validation.abs_tolerance is not a decimal: %w", err)
	}
	if _, err := decimal.NewFromString(c.Validation.RelTolerancePercent); err != nil {
		return fmt.Errorf("validation.rel_tolerance_percent is not a decimal: %w", err)
	}
	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	for name, v := range map[string]string{
		"rates.forex_risk":           c.Rates.ForexRisk,
		"rates.financing_commission": c.Rates.FinancingCommission,
		"rates.daily_loan_interest":  c.Rates.DailyLoanInterest,
		"rates.transit_commission":   c.Rates.TransitCommission,
	} {
		if _, err := decimal.NewFromString(v); err != nil {
			return fmt.Errorf("%s is not a decimal: %w", name, err)
		}
	}
	return nil
}

// SystemConfig builds the engine rate tables: the defaults with the
// configured scalar overrides applied.
func (c *Config) SystemConfig() calculation.SystemConfig {
	sys := calculation.DefaultSystemConfig()
	sys.ForexRiskRate = decimal.RequireFromString(c.Rates.ForexRisk)
	sys.FinancingCommissionRate = decimal.RequireFromString(c.Rates.FinancingCommission)
	sys.DailyLoanInterestRate = decimal.RequireFromString(c.Rates.DailyLoanInterest)
	sys.TransitCommissionRate = decimal.RequireFromString(c.Rates.TransitCommission)
	return sys
}
