package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	PlatformAlpaca = "alpaca"
	PlatformNoop   = "noop"

	liveBaseURL  = "https://api.alpaca.markets"
	paperBaseURL = "https://paper-api.alpaca.markets"
)

var ErrNoTactics = errors.New("no tactics configured")

// Config is everything a command needs, assembled from flags, the
// environment and (for run) the tactic file.
type Config struct {
	Simulated   bool
	Platform    string
	LogLevel    string
	LogFile     string
	JournalPath string
	RedisAddr   string
	Feed        string
	BaseURL     string
	APIKey      string
	APISecret   string

	File
}

func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVarP(&cfg.Simulated, "simulated", "s", false, "trade against the paper account instead of the live one")
	fs.StringVarP(&cfg.Platform, "platform", "p", "", "platform: alpaca or noop (overrides the config file)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", "", "optional rotating log file")
	fs.StringVar(&cfg.JournalPath, "journal", "actions.ndjson", "path to the action journal")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "optional redis address for caching bars")
	fs.StringVar(&cfg.Feed, "feed", "iex", "market data feed: iex or sip")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "trading API base URL (defaults by --simulated)")
}

// LoadEnv reads .env when present, then the credentials for the selected
// account. Variables already set in the environment win over .env.
func LoadEnv(cfg *Config) error {
	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	prefix := ""
	if cfg.Simulated {
		prefix = "SIMULATED_"
	}
	cfg.APIKey = envOr(prefix+"APCA_API_KEY_ID", os.Getenv("APCA_API_KEY_ID"))
	cfg.APISecret = envOr(prefix+"APCA_API_SECRET_KEY", os.Getenv("APCA_API_SECRET_KEY"))
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv(prefix + "APCA_API_BASE_URL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = liveBaseURL
		if cfg.Simulated {
			cfg.BaseURL = paperBaseURL
		}
	}
	if cfg.Platform == "" {
		cfg.Platform = PlatformAlpaca
	}
	return nil
}

// Load completes cfg for the run command: environment, then the tactic file
// at path. A --platform flag takes precedence over the file.
func Load(path string, cfg Config) (Config, error) {
	flagPlatform := cfg.Platform
	if err := LoadEnv(&cfg); err != nil {
		return cfg, err
	}

	file, err := ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.File = file
	if flagPlatform != "" {
		cfg.File.Platform = flagPlatform
	}
	cfg.Platform = cfg.File.Platform

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Tactics) == 0 {
		return cfg, ErrNoTactics
	}
	return cfg, nil
}

// Validate checks the settings shared by every command.
func Validate(cfg Config) error {
	if cfg.Platform != PlatformAlpaca && cfg.Platform != PlatformNoop {
		return fmt.Errorf("invalid platform: %s", cfg.Platform)
	}
	if cfg.Platform == PlatformAlpaca && (cfg.APIKey == "" || cfg.APISecret == "") {
		if cfg.Simulated {
			return fmt.Errorf("SIMULATED_APCA_API_KEY_ID and SIMULATED_APCA_API_SECRET_KEY (or APCA_*) are required")
		}
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required")
	}
	if cfg.Feed != "iex" && cfg.Feed != "sip" {
		return fmt.Errorf("invalid feed: %s", cfg.Feed)
	}
	return nil
}

func validate(cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	seen := make(map[string]struct{}, len(cfg.Tactics))
	for i, tactic := range cfg.Tactics {
		if tactic.Name == "" {
			return fmt.Errorf("tactic %d has no name", i)
		}
		if _, ok := seen[tactic.Name]; ok {
			return fmt.Errorf("duplicate tactic name: %s", tactic.Name)
		}
		seen[tactic.Name] = struct{}{}
		for _, rule := range []RuleConfig{tactic.Buy, tactic.Sell} {
			if err := validateRule(rule); err != nil {
				return fmt.Errorf("tactic %s: %w", tactic.Name, err)
			}
		}
	}
	return nil
}

func validateRule(rule RuleConfig) error {
	if rule.Do.Kind == DoBuy && (rule.Do.Percent <= 0 || rule.Do.Percent > 100) {
		return fmt.Errorf("buy_percent must be in (0, 100]")
	}
	return validateWhen(rule.When)
}

func validateWhen(when WhenConfig) error {
	switch when.Kind {
	case WhenBelowMedian:
		if when.Percent < 0 {
			return fmt.Errorf("below_median_percent must be >= 0")
		}
	case WhenAllOf:
		for _, sub := range when.All {
			if err := validateWhen(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
