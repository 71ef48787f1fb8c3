package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		CORSAllowAll   bool     `yaml:"cors_allow_all"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	DataSource struct {
		Provider  string `yaml:"provider"` // yahoo, priceservice or mock
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		RateLimit int    `yaml:"rate_limit"` // requests per second
	} `yaml:"data_source"`
	Data struct {
		DefaultPeriod  string `yaml:"default_period"`
		MaxDays        int    `yaml:"max_days"`
		CompareMinRows int    `yaml:"compare_min_rows"`
	} `yaml:"data"`
	Schedule struct {
		WarmCron string `yaml:"warm_cron"`
		WarmDays int    `yaml:"warm_days"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Catalog  map[string]string `yaml:"catalog"`
	LogLevel string            `yaml:"log_level"`
	Proxy    string            `yaml:"proxy"`
}

var defaultOrigins = []string{"http://localhost:8000", "http://127.0.0.1:8000"}

// Load reads an optional .env file and an optional YAML file, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"DATABASE_URL":          &c.Database.URL,
		"API_HOST":              &c.Server.Host,
		"LOG_LEVEL":             &c.LogLevel,
		"DEFAULT_DATA_PERIOD":   &c.Data.DefaultPeriod,
		"DATA_PROVIDER":         &c.DataSource.Provider,
		"PRICE_SERVICE_URL":     &c.DataSource.BaseURL,
		"PRICE_SERVICE_API_KEY": &c.DataSource.APIKey,
		"HTTPS_PROXY":           &c.Proxy,
		"WARM_CRON":             &c.Schedule.WarmCron,
		"TELEGRAM_BOT_TOKEN":    &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":      &c.Telegram.ChatID,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"API_PORT":         &c.Server.Port,
		"MAX_DAYS_PARAM":   &c.Data.MaxDays,
		"COMPARE_MIN_ROWS": &c.Data.CompareMinRows,
		"FETCH_RATE_LIMIT": &c.DataSource.RateLimit,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("CORS_ALLOW_ALL"); v != "" {
		c.Server.CORSAllowAll = strings.EqualFold(v, "true")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 10000
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = defaultOrigins
	}
	if c.Database.URL == "" {
		c.Database.URL = "sqlite:///./data/stock_data.db"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = "priceservice"
		}
	}
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 2
	}
	if c.Data.DefaultPeriod == "" {
		c.Data.DefaultPeriod = "1y"
	}
	if c.Data.MaxDays == 0 {
		c.Data.MaxDays = 365
	}
	if c.Data.CompareMinRows == 0 {
		c.Data.CompareMinRows = 50
	}
	if c.Schedule.WarmDays == 0 {
		c.Schedule.WarmDays = 30
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	c.LogLevel = strings.ToUpper(c.LogLevel)
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Data.MaxDays < 1 {
		return fmt.Errorf("data.max_days must be positive")
	}
	if c.Data.DefaultPeriod == "" {
		return fmt.Errorf("data.default_period is required")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "priceservice":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the priceservice provider")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Debug reports whether LOG_LEVEL asks for debug output.
func (c *Config) Debug() bool { return c.LogLevel == "DEBUG" }

// TelegramEnabled reports whether digest and bot commands are configured.
func (c *Config) TelegramEnabled() bool { return c.Telegram.BotToken != "" }

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
