package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Ledger struct {
		Path string `yaml:"path"`
	} `yaml:"ledger"`
	Provider struct {
		APIKey          string            `yaml:"api_key"`
		BaseURLs        map[string]string `yaml:"base_urls"` // sport -> endpoint
		TimeoutSeconds  int               `yaml:"timeout_seconds"`
		MaxRetrySeconds int               `yaml:"max_retry_seconds"`
		RequestsPerSec  int               `yaml:"requests_per_sec"`
	} `yaml:"provider"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		SettleCron        string `yaml:"settle_cron"`
		DailyReportCron   string `yaml:"daily_report_cron"`
		WeeklyReportCron  string `yaml:"weekly_report_cron"`
		MonthlyReportCron string `yaml:"monthly_report_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PICKS_FILE"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("APISPORTS_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PROVIDER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Provider.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("CRON_SETTLE"); v != "" {
		cfg.Schedule.SettleCron = v
	}

	// Defaults
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "data/my_picks.json"
	}
	if len(cfg.Provider.BaseURLs) == 0 {
		cfg.Provider.BaseURLs = map[string]string{
			"MLB":    "https://v1.baseball.api-sports.io",
			"Tennis": "https://v1.tennis.api-sports.io",
		}
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 30
	}
	if cfg.Provider.MaxRetrySeconds == 0 {
		cfg.Provider.MaxRetrySeconds = 20
	}
	if cfg.Provider.RequestsPerSec == 0 {
		cfg.Provider.RequestsPerSec = 5
	}
	if cfg.Schedule.SettleCron == "" {
		cfg.Schedule.SettleCron = "0 0 * * * *" // hourly
	}
	if cfg.Schedule.DailyReportCron == "" {
		cfg.Schedule.DailyReportCron = "0 30 23 * * *"
	}
	if cfg.Schedule.WeeklyReportCron == "" {
		cfg.Schedule.WeeklyReportCron = "0 45 23 * * 0"
	}
	if cfg.Schedule.MonthlyReportCron == "" {
		cfg.Schedule.MonthlyReportCron = "0 0 9 1 * *"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks the fields settlement needs.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if len(c.Provider.BaseURLs) == 0 {
		return fmt.Errorf("provider.base_urls must name at least one sport")
	}
	return nil
}

// ValidateServe additionally checks the fields daemon mode needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
